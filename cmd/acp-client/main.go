// Command acp-client spawns an ACP agent subprocess over stdio and
// drives a full handshake, session creation, and prompt cycle against
// it — a reusable demo client for any agent built against this
// package's wire format.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentclientprotocol/acp-go/internal/acp"
	"github.com/agentclientprotocol/acp-go/internal/logger"
)

func main() {
	var (
		agentCmd string
		agentDir string
		prompt   string
		debug    bool
		timeout  time.Duration
	)

	root := &cobra.Command{
		Use:   "acp-client",
		Short: "Spawn an ACP agent over stdio and send it one prompt",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(agentCmd, agentDir, prompt, debug, timeout)
		},
	}
	root.Flags().StringVar(&agentCmd, "agent", "acp-agent", "agent command to spawn")
	root.Flags().StringVar(&agentDir, "workdir", ".", "working directory to hand the agent")
	root.Flags().StringVar(&prompt, "prompt", "What is 2+2?", "prompt text to send")
	root.Flags().BoolVar(&debug, "debug", false, "enable debug logging")
	root.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "overall deadline for the demo run")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(agentCmd, agentDir, prompt string, debug bool, timeout time.Duration) error {
	logger.Init(logger.Config{Debug: debug, Component: "acp-client"})

	cmd := exec.Command(agentCmd)
	cmd.Dir = agentDir
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start agent %q: %w", agentCmd, err)
	}
	defer cmd.Process.Kill()

	transport := acp.NewStdioTransport(stdout, stdin)
	dispatcher := acp.NewDispatcher()
	session := acp.NewSession(transport, dispatcher)
	client := acp.NewClientEndpoint(session, dispatcher, acp.ClientInfo{Name: "acp-go-demo-client", Version: "0.1.0"})

	var chunksMu sync.Mutex
	var chunks string
	client.OnSessionUpdate(func(p acp.SessionUpdateParams) {
		if p.Update.Kind == acp.UpdateAgentMessageChunk && p.Update.Content != nil {
			chunksMu.Lock()
			chunks += p.Update.Content.Text
			chunksMu.Unlock()
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := session.Start(ctx); err != nil {
		return fmt.Errorf("start session: %w", err)
	}

	fmt.Println("initializing...")
	initResult, err := client.Initialize(ctx, acp.ClientCapabilities{})
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	fmt.Printf("agent: %+v\n", initResult.AgentInfo)

	fmt.Println("creating session...")
	sessionResult, err := client.NewSession(ctx, agentDir, nil)
	if err != nil {
		return fmt.Errorf("session/new: %w", err)
	}
	fmt.Printf("session: %s\n", sessionResult.SessionID)

	fmt.Println("sending prompt...")
	result, err := client.Prompt(ctx, sessionResult.SessionID, []acp.ContentBlock{acp.TextBlock(prompt)})
	if err != nil {
		return fmt.Errorf("session/prompt: %w", err)
	}

	time.Sleep(100 * time.Millisecond)
	chunksMu.Lock()
	output := chunks
	chunksMu.Unlock()
	fmt.Printf("stop reason: %s\n", result.StopReason)
	fmt.Printf("output: %s\n", output)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return session.CloseGracefully(shutdownCtx)
}

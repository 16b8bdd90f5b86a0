// Command acp-agent is a minimal stdio ACP agent: it speaks the
// protocol over its own stdin/stdout and echoes each prompt back as a
// stream of agent_message_chunk updates, for exercising a client
// implementation end to end without a real model behind it.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentclientprotocol/acp-go/internal/acp"
	"github.com/agentclientprotocol/acp-go/internal/logger"
)

func main() {
	var (
		debug  bool
		logDir string
	)

	root := &cobra.Command{
		Use:   "acp-agent",
		Short: "Run a demo ACP agent over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(debug, logDir)
		},
	}
	root.Flags().BoolVar(&debug, "debug", false, "enable debug logging")
	root.Flags().StringVar(&logDir, "log-dir", "", "directory for rotated log files (stderr only if empty)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(debug bool, logDir string) error {
	logger.Init(logger.Config{LogDir: logDir, Debug: debug, Component: "acp-agent"})

	dispatcher := acp.NewDispatcher()
	transport := acp.NewStdioTransport(os.Stdin, os.Stdout)
	session := acp.NewSession(transport, dispatcher)
	agent := acp.NewAgentEndpoint(session, acp.AgentInfo{Name: "acp-go-demo-agent", Version: "0.1.0"})
	registry := acp.NewSessionRegistry(nil)
	registry.StartIdleReaper()
	defer registry.StopIdleReaper()

	agent.RegisterHandlers(dispatcher, acp.AgentHandlers{
		Initialize: func(_ context.Context, p acp.InitializeParams) (acp.InitializeResult, error) {
			return acp.InitializeResult{
				ProtocolVersion: acp.ProtocolVersion,
				AgentCapabilities: acp.AgentCapabilities{
					LoadSession: true,
					PromptCapabilities: acp.PromptCapabilities{
						EmbeddedContext: true,
					},
				},
				AgentInfo:   &acp.AgentInfo{Name: "acp-go-demo-agent", Version: "0.1.0"},
				AuthMethods: acp.DemoAuthMethods,
			}, nil
		},
		Authenticate: func(_ context.Context, p acp.AuthenticateParams) (acp.AuthenticateResult, error) {
			if p.MethodID != acp.BearerDemoAuthMethod {
				return acp.AuthenticateResult{}, acp.NewErrorf(acp.CodeAuthRequired, "unknown auth method %q", p.MethodID)
			}
			return acp.AuthenticateResult{}, nil
		},
		SessionNew: func(_ context.Context, p acp.SessionNewParams) (acp.SessionNewResult, error) {
			id := newSessionID()
			registry.Track(id, p.CWD)
			return acp.SessionNewResult{SessionID: id}, nil
		},
		SessionLoad: func(_ context.Context, p acp.SessionLoadParams) (acp.SessionLoadResult, error) {
			if _, ok := registry.Get(p.SessionID); !ok {
				registry.Track(p.SessionID, p.CWD)
			}
			return acp.SessionLoadResult{}, nil
		},
		SessionSetMode: func(_ context.Context, p acp.SessionSetModeParams) (acp.SessionSetModeResult, error) {
			registry.SetMode(p.SessionID, p.ModeID)
			return acp.SessionSetModeResult{}, nil
		},
		SessionSetModel: func(_ context.Context, p acp.SessionSetModelParams) (acp.SessionSetModelResult, error) {
			registry.SetModel(p.SessionID, p.ModelID)
			return acp.SessionSetModelResult{}, nil
		},
		SessionPrompt: func(ctx context.Context, p acp.SessionPromptParams) (acp.SessionPromptResult, error) {
			registry.Touch(p.SessionID)
			for _, block := range p.Prompt {
				if block.Type != acp.ContentText {
					continue
				}
				select {
				case <-ctx.Done():
					return acp.SessionPromptResult{StopReason: acp.StopCancelled}, nil
				default:
				}
				if err := agent.SendSessionUpdate(p.SessionID, acp.SessionUpdate{
					Kind:    acp.UpdateAgentMessageChunk,
					Content: &acp.ContentBlock{Type: acp.ContentText, Text: "echo: " + block.Text},
				}); err != nil {
					return acp.SessionPromptResult{}, err
				}
			}
			return acp.SessionPromptResult{StopReason: acp.StopEndTurn}, nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := session.Start(ctx); err != nil {
		return fmt.Errorf("start session: %w", err)
	}

	<-ctx.Done()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return session.CloseGracefully(shutdownCtx)
}

func newSessionID() string {
	return fmt.Sprintf("sess-%d", time.Now().UnixNano())
}

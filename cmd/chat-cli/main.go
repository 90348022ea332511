// chat-cli is a terminal front end for the askchat server. It logs in, opens
// a chat (or creates one), replays its history and then sends each line read
// from stdin as a question, printing the answer as it is revealed.
package main

import (
	"askchat-backend/internal/client"
	"askchat-backend/internal/conversation"
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		server   string
		email    string
		password string
		chatFlag string
		signup   bool
		timeout  time.Duration
	)

	flagSet := pflag.NewFlagSet("chat-cli", pflag.ContinueOnError)
	flagSet.StringVar(&server, "server", "http://localhost:8080", "askchat server base URL")
	flagSet.StringVarP(&email, "email", "e", os.Getenv("ASKCHAT_EMAIL"), "account email")
	flagSet.StringVarP(&password, "password", "p", os.Getenv("ASKCHAT_PASSWORD"), "account password")
	flagSet.StringVar(&chatFlag, "chat", "", "existing chat ID to continue (default: create a new chat)")
	flagSet.BoolVar(&signup, "signup", false, "create the account before logging in")
	flagSet.DurationVar(&timeout, "timeout", 90*time.Second, "per-request timeout")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if email == "" || password == "" {
		return errors.New("--email and --password are required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := client.New(server, timeout)
	if err != nil {
		return err
	}
	if signup {
		if _, err := c.Signup(ctx, email, password); err != nil {
			return fmt.Errorf("signup: %w", err)
		}
	}
	if _, err := c.Login(ctx, email, password); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	history, chatID, err := openChat(ctx, c, chatFlag)
	if err != nil {
		return err
	}
	c.UseChat(&chatID)
	fmt.Printf("chat %s\n", chatID)
	for _, t := range history {
		fmt.Printf("> %s\n%s\n\n", t.Question, t.Answer)
	}

	engine := conversation.New(c,
		conversation.WithHistory(history),
		conversation.WithListener(printEvent))
	defer engine.Close()

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			fmt.Print("> ")
			continue
		}
		engine.SetInput(line)
		done, err := engine.Submit(ctx)
		if err != nil {
			log.Printf("WARN: submit rejected: %v", err)
			continue
		}
		select {
		case <-done:
		case <-ctx.Done():
			return nil
		}
		fmt.Print("> ")
	}
	return scanner.Err()
}

// openChat loads the chat named by idFlag, or creates a fresh one.
func openChat(ctx context.Context, c *client.Client, idFlag string) ([]conversation.Turn, uuid.UUID, error) {
	if idFlag == "" {
		chat, err := c.CreateChat(ctx)
		if err != nil {
			return nil, uuid.Nil, fmt.Errorf("create chat: %w", err)
		}
		return nil, chat.ID, nil
	}

	id, err := uuid.Parse(idFlag)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("invalid --chat %q: %w", idFlag, err)
	}
	chat, err := c.GetChat(ctx, id)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("get chat: %w", err)
	}
	if chat == nil {
		return nil, uuid.Nil, fmt.Errorf("chat %s not found", id)
	}

	turns := make([]conversation.Turn, 0, len(chat.Messages))
	for _, m := range chat.Messages {
		turns = append(turns, conversation.Turn{Question: m.Question, Answer: m.Answer})
	}
	return turns, chat.ID, nil
}

func printEvent(ev conversation.Event) {
	switch ev.Kind {
	case conversation.EventStateChanged:
		if ev.State.Phase == conversation.PhaseAwaitingAnswer {
			fmt.Print("Generating...\r")
		}
	case conversation.EventChunk:
		fmt.Print(ev.Chunk.Text)
	case conversation.EventMessageCompleted:
		fmt.Print("\n\n")
	}
}

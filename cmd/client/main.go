package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"ephemeral-chat/client"
	"github.com/gookit/color"
	"github.com/kelseyhightower/envconfig"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

type Config struct {
	HTTPAddr string `envconfig:"CHAT_HTTP_ADDR" default:"http://localhost:8081"`
	GRPCAddr string `envconfig:"CHAT_GRPC_ADDR" default:"localhost:8080"`
	Email    string `envconfig:"CHAT_EMAIL" required:"true"`
	Password string `envconfig:"CHAT_PASSWORD" required:"true"`
	// CHAT_PEER is the id of the user to talk to
	Peer     string `envconfig:"CHAT_PEER" required:"true"`
	Register bool   `envconfig:"CHAT_REGISTER" default:"false"`
	Colours  bool   `envconfig:"CHAT_COLOURS" default:"true"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run logs in, opens the conversation with CHAT_PEER and relays stdin lines as messages.
// "/react <messageId> <emoji>", "/delete <messageId>" and "/quit" are understood.
func run() (int, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	color.Enable = config.Colours

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := client.New(config.HTTPAddr)
	login := api.Login
	if config.Register {
		login = api.Register
	}
	if err := login(ctx, config.Email, config.Password); err != nil {
		return exitRuntime, fmt.Errorf("authentication failed: %w", err)
	}
	color.Green.Printf("Signed in as %s (%s)\n", api.User.DisplayName, api.User.ID)

	conversation, err := api.StartConversation(ctx, config.Peer)
	if err != nil {
		return exitRuntime, fmt.Errorf("cannot open conversation: %w", err)
	}
	history, err := api.History(ctx, conversation.ID)
	if err != nil {
		return exitRuntime, err
	}
	color.Cyan.Printf("Talking with %s\n", conversation.OtherUser.DisplayName)
	for _, message := range history {
		printMessage(api.User.ID, message.ID, message.Sender.DisplayName, message.SenderID, message.Content)
	}

	conn, err := grpc.NewClient(config.GRPCAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to server at %s: %w", config.GRPCAddr, err)
	}
	defer func() { _ = conn.Close() }()

	session, err := client.Connect(ctx, conn)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open stream: %w", err)
	}
	if err := session.Authenticate(api.Token); err != nil {
		return exitRuntime, err
	}
	if err := session.Join(conversation.ID); err != nil {
		return exitRuntime, err
	}

	streamErr := make(chan error, 1)
	go func() { streamErr <- receive(session, api.User.ID) }()

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return exitOK, nil
		case err := <-streamErr:
			if err != nil {
				return exitRuntime, fmt.Errorf("stream ended: %w", err)
			}
			return exitOK, nil
		case line, ok := <-lines:
			if !ok || line == "/quit" {
				_ = session.Close()
				return exitOK, nil
			}
			if err := handleLine(session, conversation.ID, line); err != nil {
				color.Red.Printf("! %v\n", err)
			}
		}
	}
}

func handleLine(session *client.Session, conversationID, line string) error {
	fields := strings.Fields(line)
	switch {
	case len(fields) == 0:
		return nil
	case fields[0] == "/react" && len(fields) == 3:
		return session.React(conversationID, fields[1], fields[2], true)
	case fields[0] == "/unreact" && len(fields) == 3:
		return session.React(conversationID, fields[1], fields[2], false)
	case fields[0] == "/delete" && len(fields) == 2:
		return session.DeleteMessage(conversationID, fields[1])
	default:
		return session.SendMessage(conversationID, line, "")
	}
}

func receive(session *client.Session, me string) error {
	for {
		frame, err := session.Next()
		if err != nil {
			return err
		}
		doc := frame.Doc()
		switch frame.Event {
		case "newMessage":
			sender, _ := doc["sender"].(map[string]any)
			printMessage(me, fmt.Sprint(doc["id"]), fmt.Sprint(sender["displayName"]), fmt.Sprint(doc["senderId"]), fmt.Sprint(doc["content"]))
		case "messageDeleted":
			color.Gray.Printf("  message %s deleted\n", doc["messageId"])
		case "reactionAdded", "reactionRemoved":
			color.Magenta.Printf("  %s %s on %s\n", frame.Event, doc["emoji"], doc["messageId"])
		case "conversationDeleted":
			color.Yellow.Println("  conversation deleted")
			return nil
		case "error":
			color.Red.Printf("! %s (%s)\n", doc["message"], doc["code"])
		}
	}
}

func printMessage(me, id, name, senderID, content string) {
	if senderID == me {
		color.Green.Printf("[%s] you: %s\n", short(id), content)
		return
	}
	color.Blue.Printf("[%s] %s: %s\n", short(id), name, content)
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

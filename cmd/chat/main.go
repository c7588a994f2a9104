// Command chat is a terminal client for the report service. It drives one
// conversation session: upload a report, ask questions about it, reset.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/medreport/companion/internal/core/domain"
	"github.com/medreport/companion/internal/core/ports"
	"github.com/medreport/companion/internal/core/usecase"
	"github.com/medreport/companion/internal/infrastructure/backendclient"
	"github.com/medreport/companion/internal/infrastructure/picker"
)

const usage = `Commands:
  /upload <path>        upload a medical report (txt, pdf, xlsx, png, jpg)
  /image <path>         upload a photographed report (png, jpg)
  /signin <email> <pw>  sign in to your account
  /signup <email> <pw>  create an account
  /signout              sign out
  /reset                discard the report and start over
  /quit                 exit
Anything else is a question about the uploaded report.`

func main() {
	backendURL := flag.String("backend", "http://localhost:8080", "report service base URL")
	timeout := flag.Duration("timeout", 60*time.Second, "per-request timeout")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := backendclient.New(*backendURL, *timeout)
	files := picker.NewFilesystem()
	session := usecase.NewChatSession(client, client)
	session.Initialize(nil)

	unsubscribe := client.OnAuthStateChanged(func(state ports.AuthState) {
		if state.UserID == "" {
			fmt.Println("(account: signed out)")
			return
		}
		fmt.Printf("(account: %s)\n", state.Email)
	})
	defer unsubscribe()

	fmt.Println(usage)
	lastShown := render(session, 0)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" {
			return
		}

		runCommand(ctx, client, files, session, line)
		lastShown = render(session, lastShown)

		if ctx.Err() != nil {
			return
		}
	}
}

func runCommand(ctx context.Context, client *backendclient.Client, files *picker.Filesystem, session *usecase.ChatSession, line string) {
	switch {
	case strings.HasPrefix(line, "/upload"):
		files.Stage(strings.TrimSpace(strings.TrimPrefix(line, "/upload")))
		doc, picked, err := files.PickDocument(ctx)
		if err != nil {
			fmt.Printf("! %v\n", err)
			return
		}
		if !picked {
			fmt.Println("! usage: /upload <path>")
			return
		}
		_ = session.SubmitDocument(ctx, doc)

	case strings.HasPrefix(line, "/image"):
		files.Stage(strings.TrimSpace(strings.TrimPrefix(line, "/image")))
		doc, picked, err := files.PickImage(ctx)
		if err != nil {
			fmt.Printf("! %v\n", err)
			return
		}
		if !picked {
			fmt.Println("! usage: /image <path>")
			return
		}
		_ = session.SubmitDocument(ctx, doc)

	case strings.HasPrefix(line, "/signin"), strings.HasPrefix(line, "/signup"):
		fields := strings.Fields(line)
		if len(fields) != 3 {
			fmt.Printf("! usage: %s <email> <password>\n", fields[0])
			return
		}
		var err error
		if fields[0] == "/signin" {
			_, err = client.SignIn(ctx, fields[1], fields[2])
		} else {
			_, err = client.SignUp(ctx, fields[1], fields[2])
		}
		if err != nil {
			fmt.Printf("! %v\n", err)
			return
		}

	case line == "/signout":
		if err := client.SignOut(ctx); err != nil {
			fmt.Printf("! %v\n", err)
		}

	case line == "/reset":
		session.ResetDocument()

	case strings.HasPrefix(line, "/"):
		fmt.Println(usage)

	default:
		_ = session.SubmitQuestion(ctx, line)
	}
}

// render prints transcript entries newer than lastShown and returns the
// newest id.
func render(session *usecase.ChatSession, lastShown int64) int64 {
	for _, message := range session.Messages() {
		if message.ID <= lastShown {
			continue
		}
		prefix := "assistant"
		if message.Origin == domain.OriginUser {
			prefix = "you"
		}
		fmt.Printf("[%s] %s\n", prefix, message.Body)
		lastShown = message.ID
	}
	return lastShown
}

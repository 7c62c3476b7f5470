// Command devconnect is the terminal client: it keeps a token in the
// user config dir and drives the session against a running server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/goliatone/devconnect/client"
	"github.com/goliatone/go-print"
)

const defaultServer = "http://localhost:3000"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	baseURL := os.Getenv("DEVCONNECT_SERVER")
	if baseURL == "" {
		baseURL = defaultServer
	}

	c, err := client.New(baseURL)
	if err != nil {
		fail("client setup failed: %v", err)
	}
	defer c.Close()

	ctx := context.Background()

	var runErr error
	switch os.Args[1] {
	case "login":
		runErr = runLogin(ctx, c, os.Args[2:])
	case "register":
		runErr = runRegister(ctx, c, os.Args[2:])
	case "whoami":
		runErr = runWhoami(ctx, c)
	case "logout":
		runErr = runLogout(c)
	case "posts":
		runErr = runPosts(ctx, c, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}

	drainNotifications(c)

	if runErr != nil {
		fail("%v", runErr)
	}
}

func runLogin(ctx context.Context, c *client.Client, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	fs.Parse(args)

	if *email == "" || *password == "" {
		return fmt.Errorf("login requires -email and -password")
	}

	if err := c.Login(ctx, *email, *password); err != nil {
		return err
	}

	snap := c.Snapshot()
	if snap.Status != client.StatusAuthenticated {
		return fmt.Errorf("login failed")
	}

	fmt.Printf("logged in as %s\n", snap.Subject.Email)
	return nil
}

func runRegister(ctx context.Context, c *client.Client, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	fs.Parse(args)

	if *name == "" || *email == "" || *password == "" {
		return fmt.Errorf("register requires -name, -email and -password")
	}

	if err := c.Register(ctx, *name, *email, *password); err != nil {
		return err
	}

	snap := c.Snapshot()
	if snap.Status != client.StatusAuthenticated {
		return fmt.Errorf("registration failed")
	}

	fmt.Printf("registered %s\n", snap.Subject.Email)
	return nil
}

func runWhoami(ctx context.Context, c *client.Client) error {
	if err := c.Start(ctx); err != nil {
		return err
	}

	snap := c.Snapshot()
	if snap.Status != client.StatusAuthenticated {
		return fmt.Errorf("not logged in")
	}

	fmt.Println(print.MaybeHighlightJSON(snap.Subject))
	return nil
}

func runLogout(c *client.Client) error {
	if err := c.Logout(); err != nil {
		return err
	}
	fmt.Println("logged out")
	return nil
}

func runPosts(ctx context.Context, c *client.Client, args []string) error {
	fs := flag.NewFlagSet("posts", flag.ExitOnError)
	text := fs.String("new", "", "publish a post with the given text")
	fs.Parse(args)

	if err := c.Start(ctx); err != nil {
		return err
	}

	snap := c.Snapshot()
	if snap.Status != client.StatusAuthenticated {
		return fmt.Errorf("not logged in")
	}

	api := c.API()
	token := c.Token()

	if *text != "" {
		post, err := api.CreatePost(ctx, token, *text)
		if err != nil {
			return err
		}
		fmt.Println(print.MaybeHighlightJSON(post))
		return nil
	}

	posts, err := api.Posts(ctx, token)
	if err != nil {
		return err
	}

	fmt.Println(print.MaybeHighlightJSON(posts))
	return nil
}

func drainNotifications(c *client.Client) {
	for _, n := range c.Notifications() {
		fmt.Fprintf(os.Stderr, "[%s] %s\n", n.Severity, n.Message)
	}
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: devconnect <command> [flags]

commands:
  login     -email -password    exchange credentials for a session
  register  -name -email -password
  whoami                        show the current account
  logout                        clear the stored credential
  posts     [-new "text"]       list the feed or publish a post`)
}

// Command lrusvc runs the posts or the comments service. Each embeds an LRU
// cache in front of its store.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "lrusvc",
		Usage: "posts and comments services with an in-memory LRU cache",
		Commands: []*cli.Command{
			{
				Name:   "posts",
				Usage:  "Run the posts service",
				Flags:  serviceFlags("COMMENTS", ":5000", "5001"),
				Action: runPosts,
			},
			{
				Name:   "comments",
				Usage:  "Run the comments service",
				Flags:  serviceFlags("POSTS", ":5001", "5000"),
				Action: runComments,
			},
		},
	}
}

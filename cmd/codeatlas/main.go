package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codeatlas/codeatlas/internal/engine"
	"github.com/codeatlas/codeatlas/internal/errs"
	"github.com/codeatlas/codeatlas/internal/tools"
	"github.com/codeatlas/codeatlas/internal/watcher"
)

var version = "dev"

func usage() {
	fmt.Fprintln(os.Stderr, `usage: codeatlas <command> [dir]

commands:
  init [dir]    initialize a project (default: current directory)
  serve [dir]   run the MCP stdio server over an initialized project
  watch [dir]   serve and auto-sync on file changes`)
	os.Exit(2)
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Println("codeatlas", version)
		return
	}
	if len(os.Args) < 2 {
		usage()
	}

	dir := "."
	if len(os.Args) > 2 {
		dir = os.Args[2]
	}

	switch os.Args[1] {
	case "init":
		runInit(dir)
	case "serve":
		runServe(dir, false)
	case "watch":
		runServe(dir, true)
	default:
		usage()
	}
}

func runInit(dir string) {
	e, err := engine.Init(dir)
	if err != nil {
		if errs.Is(err, errs.AlreadyInitialized) {
			log.Fatalf("already initialized: %s", dir)
		}
		log.Fatalf("init err=%v", err)
	}
	defer e.Close()

	summary, err := e.Index(context.Background())
	if err != nil {
		log.Fatalf("index err=%v", err)
	}
	fmt.Printf("indexed %d files (%d warnings)\n", summary.FilesAdded, len(summary.Errors))
}

func runServe(dir string, watch bool) {
	e, err := engine.Open(dir)
	if err != nil {
		if errs.Is(err, errs.NotInitialized) {
			log.Fatalf("not initialized, run: codeatlas init %s", dir)
		}
		log.Fatalf("open err=%v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if watch {
		w := watcher.New(e.Root, func(ctx context.Context) error {
			_, err := e.Sync(ctx)
			return err
		})
		go w.Run(ctx)
	}

	srv := tools.NewServer(e, nil)
	runErr := srv.MCPServer().Run(ctx, &mcp.StdioTransport{})
	e.Close()
	if runErr != nil {
		log.Fatalf("server err=%v", runErr)
	}
}

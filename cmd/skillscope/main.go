// Command skillscope is a terminal client for the skillscope API.
//
//	skillscope [-server URL] [-token T] analyze <topic>
//	skillscope mindmap [-area A] [-level L] [-png out.png] <topic>
//	skillscope chat [-type general|academic|opportunities|projects] [-conversation ID]
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/bryanwahyu/skillscope/internal/client"
	"github.com/bryanwahyu/skillscope/internal/domain/mindmap"
	"github.com/bryanwahyu/skillscope/internal/infra/render"
	"github.com/bryanwahyu/skillscope/internal/present"
)

func main() {
	global := flag.NewFlagSet("skillscope", flag.ExitOnError)
	server := global.String("server", envOr("SKILLSCOPE_URL", "http://localhost:8080"), "API base URL")
	token := global.String("token", os.Getenv("SKILLSCOPE_TOKEN"), "bearer token")
	global.Usage = usage
	_ = global.Parse(os.Args[1:])

	args := global.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c := client.New(*server, client.WithToken(*token))
	var err error
	switch args[0] {
	case "analyze":
		err = runAnalyze(ctx, c, args[1:], os.Stdout)
	case "mindmap":
		err = runMindMap(ctx, c, args[1:], os.Stdout)
	case "chat":
		err = runChat(ctx, c, args[1:], os.Stdin, os.Stdout)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, present.NoticeFor(err).Message)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: skillscope [-server URL] [-token T] <command> [flags]

commands:
  analyze <topic>                       relevance verdict and learning sections
  mindmap [-area] [-level] [-png] <topic>
  chat [-type] [-conversation]          interactive assistant`)
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func runAnalyze(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	topic := strings.Join(args, " ")
	res, err := c.AnalyzeTopic(ctx, topic)
	if err != nil {
		return err
	}
	return present.WriteAnalysis(out, topic, res)
}

func runMindMap(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("mindmap", flag.ExitOnError)
	area := fs.String("area", "", "interest area (default general)")
	level := fs.String("level", "", "beginner, intermediate or advanced")
	pngPath := fs.String("png", "", "also render the map to this PNG file")
	_ = fs.Parse(args)

	topic := strings.Join(fs.Args(), " ")
	g, err := c.GenerateMindMap(ctx, client.MindMapRequest{Topic: topic, InterestArea: *area, SkillLevel: *level})
	if err != nil {
		return err
	}
	if err := present.WriteMindMap(out, g); err != nil {
		return err
	}
	if *pngPath == "" {
		return nil
	}
	img, err := render.PNG{}.RenderPNG(mindmap.Arrange(g), topic)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*pngPath, img, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(out, "saved %s\n", *pngPath)
	return nil
}

package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"github.com/go-chi/chi/v5"

	"github.com/bryanwahyu/skillscope/internal/bootstrap"
	"github.com/bryanwahyu/skillscope/internal/config"
	"github.com/bryanwahyu/skillscope/internal/logger"
)

var adapter *chiadapter.ChiLambdaV2

func init() {
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	lg, err := logger.New(cfg.Log.Mode)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}

	// connections stay open for the lifetime of the execution environment
	app, err := bootstrap.Build(context.Background(), cfg, lg)
	if err != nil {
		lg.Fatal("cold start failed", "error", err)
	}

	mux := chi.NewRouter()
	mux.Mount("/", app.Handler)
	adapter = chiadapter.NewV2(mux)
	lg.Info("lambda handler ready")
}

func handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	return adapter.ProxyWithContextV2(ctx, req)
}

func main() {
	lambda.Start(handler)
}

//go:build lambda

package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"loto-optimizer/internal/game"
	"loto-optimizer/internal/generator"
	"loto-optimizer/internal/logging"
	"loto-optimizer/internal/telemetry"
)

var jsonHeader = map[string]string{
	"Content-Type": "application/json",
}

type lambdaApp struct {
	catalog game.Catalog
	gen     *generator.Generator
	rec     *telemetry.Recorder
}

func (a *lambdaApp) handler(ctx context.Context, event events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
	body := event.Body
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return jsonResp(http.StatusBadRequest, errorBody{Error: "invalid base64 body"})
		}
		body = string(decoded)
	}
	if event.RequestContext.HTTP.Method == http.MethodGet {
		games := make([]game.Spec, 0, len(a.catalog))
		for _, name := range a.catalog.Names() {
			games = append(games, a.catalog[name])
		}
		return jsonResp(http.StatusOK, games)
	}
	return jsonResp(respond(ctx, a.gen, a.rec, a.catalog, []byte(body)))
}

func jsonResp(code int, v any) (events.LambdaFunctionURLResponse, error) {
	body, _ := json.Marshal(v)
	return events.LambdaFunctionURLResponse{StatusCode: code, Headers: jsonHeader, Body: string(body)}, nil
}

func main() {
	env, err := loadEnv()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(env.LogLevel, os.Stderr)
	if err != nil {
		panic(err)
	}
	catalog, err := loadCatalog(env.Presets)
	if err != nil {
		log.WithError(err).Fatal("presets")
	}
	rec := telemetry.NewRecorder()
	app := &lambdaApp{catalog: catalog, gen: generator.New(log, rec), rec: rec}
	lambda.Start(app.handler)
}

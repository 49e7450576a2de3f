//go:build lambda

package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loto-optimizer/internal/game"
	"loto-optimizer/internal/generator"
	"loto-optimizer/internal/logging"
	"loto-optimizer/internal/telemetry"
)

func testApp() *lambdaApp {
	rec := telemetry.NewRecorder()
	return &lambdaApp{catalog: game.Builtin(), gen: generator.New(logging.Discard(), rec), rec: rec}
}

func TestLambdaHandler(t *testing.T) {
	body := `{"game":"quina","tickets":2,"k":5,"sample_candidates":100,"local_iters":10}`
	ev := events.LambdaFunctionURLRequest{
		Body:            base64.StdEncoding.EncodeToString([]byte(body)),
		IsBase64Encoded: true,
	}
	ev.RequestContext.HTTP.Method = http.MethodPost

	resp, err := testApp().handler(context.Background(), ev)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Tickets [][]int `json:"tickets"`
	}
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &out))
	assert.Len(t, out.Tickets, 2)
}

func TestLambdaHandlerErrors(t *testing.T) {
	app := testApp()

	resp, err := app.handler(context.Background(), events.LambdaFunctionURLRequest{Body: "!!", IsBase64Encoded: true})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = app.handler(context.Background(), events.LambdaFunctionURLRequest{Body: `{"game":"keno","tickets":1}`})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

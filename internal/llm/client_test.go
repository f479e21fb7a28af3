package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openAIResponse(content string) string {
	payload := map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"content": content}},
		},
	}
	data, _ := json.Marshal(payload)
	return string(data)
}

func anthropicResponse(text string) string {
	payload := map[string]interface{}{
		"content": []map[string]string{
			{"text": text},
		},
	}
	data, _ := json.Marshal(payload)
	return string(data)
}

func TestCompleteOpenAIJSONMode(t *testing.T) {
	var captured map[string]interface{}
	var authHeader string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		authHeader = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(openAIResponse("```json\n{\"questions\": [\"What domain?\"]}\n```")))
	}))
	defer server.Close()

	client := NewProviderClient()
	client.SetBaseURL(ProviderOpenAI, server.URL)

	parsed, err := client.Complete(context.Background(), Request{
		Provider: ProviderOpenAI,
		Model:    "gpt-4-turbo",
		APIKey:   "sk-test",
		Prompt:   "analyze this",
		JSONMode: true,
	})
	require.NoError(t, err)

	obj, ok := AsObject(parsed)
	require.True(t, ok)
	assert.Contains(t, obj, "questions")

	assert.Equal(t, "Bearer sk-test", authHeader)
	assert.Equal(t, "gpt-4-turbo", captured["model"])
	assert.Equal(t, map[string]interface{}{"type": "json_object"}, captured["response_format"])

	messages, ok := captured["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, messages, 1)
	first := messages[0].(map[string]interface{})
	assert.Equal(t, "user", first["role"])
	assert.Equal(t, "analyze this", first["content"])
}

func TestCompletePlainTextSkipsParsing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.NotContains(t, body, "response_format")
		w.Write([]byte(openAIResponse("plain prose answer")))
	}))
	defer server.Close()

	client := NewProviderClient()
	client.SetBaseURL(ProviderOpenAI, server.URL)

	result, err := client.Complete(context.Background(), Request{
		Provider: ProviderOpenAI,
		Model:    "gpt-4-turbo",
		APIKey:   "sk-test",
		Prompt:   "run this",
	})
	require.NoError(t, err)
	assert.Equal(t, "plain prose answer", result)
}

func TestCompleteAnthropic(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant-test", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "claude-3-sonnet-20240229", body["model"])
		assert.Equal(t, float64(4096), body["max_tokens"], "anthropic requires max_tokens, defaulted when unset")

		w.Write([]byte(anthropicResponse(`{"feedback": "solid"}`)))
	}))
	defer server.Close()

	client := NewProviderClient()
	client.SetBaseURL(ProviderAnthropic, server.URL)

	parsed, err := client.Complete(context.Background(), Request{
		Provider: ProviderAnthropic,
		Model:    "claude-3-sonnet-20240229",
		APIKey:   "sk-ant-test",
		Prompt:   "evaluate this",
		JSONMode: true,
	})
	require.NoError(t, err)

	obj, ok := AsObject(parsed)
	require.True(t, ok)
	assert.Equal(t, "solid", obj["feedback"])
}

func TestCompleteEmptyProviderDefaultsToOpenAI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		w.Write([]byte(openAIResponse("ok")))
	}))
	defer server.Close()

	client := NewProviderClient()
	client.SetBaseURL(ProviderOpenAI, server.URL)

	result, err := client.Complete(context.Background(), Request{
		Model:  "gpt-3.5-turbo",
		APIKey: "sk-test",
		Prompt: "hello",
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
}

func TestCompleteClassifiesAuthFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"message": "Incorrect API key provided"}}`))
	}))
	defer server.Close()

	client := NewProviderClient()
	client.SetBaseURL(ProviderOpenAI, server.URL)

	_, err := client.Complete(context.Background(), Request{
		Provider: ProviderOpenAI,
		Model:    "gpt-4-turbo",
		APIKey:   "sk-bad",
		Prompt:   "hello",
		JSONMode: true,
	})
	require.Error(t, err)
	assert.Equal(t, KindAuth, KindOf(err))
	assert.Contains(t, err.Error(), "401")
}

func TestCompleteClassifiesRateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"message": "Rate limit reached"}}`))
	}))
	defer server.Close()

	client := NewProviderClient()
	client.SetBaseURL(ProviderOpenAI, server.URL)

	_, err := client.Complete(context.Background(), Request{
		Provider: ProviderOpenAI,
		Model:    "gpt-4-turbo",
		APIKey:   "sk-test",
		Prompt:   "hello",
		JSONMode: true,
	})
	require.Error(t, err)
	assert.Equal(t, KindRateLimit, KindOf(err))
}

func TestCompleteClassifiesServerErrorAsTransport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewProviderClient()
	client.SetBaseURL(ProviderOpenAI, server.URL)

	_, err := client.Complete(context.Background(), Request{
		Provider: ProviderOpenAI,
		Model:    "gpt-4-turbo",
		APIKey:   "sk-test",
		Prompt:   "hello",
	})
	require.Error(t, err)
	assert.Equal(t, KindTransport, KindOf(err))
}

func TestCompleteMalformedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(openAIResponse("I would rather chat than emit JSON")))
	}))
	defer server.Close()

	client := NewProviderClient()
	client.SetBaseURL(ProviderOpenAI, server.URL)

	_, err := client.Complete(context.Background(), Request{
		Provider: ProviderOpenAI,
		Model:    "gpt-4-turbo",
		APIKey:   "sk-test",
		Prompt:   "hello",
		JSONMode: true,
	})
	require.Error(t, err)
	assert.Equal(t, KindParse, KindOf(err))
}

func TestCompleteUnknownProvider(t *testing.T) {
	client := NewProviderClient()

	_, err := client.Complete(context.Background(), Request{
		Provider: "mystery",
		Model:    "m1",
		Prompt:   "hello",
	})
	require.Error(t, err)
	assert.Equal(t, KindConfiguration, KindOf(err))
	assert.Contains(t, err.Error(), "mystery")
}

func TestCompleteUnknownProviderWithRegisteredBaseURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		w.Write([]byte(openAIResponse("ok")))
	}))
	defer server.Close()

	client := NewProviderClient()
	client.SetBaseURL("local-gateway", server.URL)

	result, err := client.Complete(context.Background(), Request{
		Provider: "local-gateway",
		Model:    "m1",
		Prompt:   "hello",
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
}

func TestCompleteResponseWithoutChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	client := NewProviderClient()
	client.SetBaseURL(ProviderOpenAI, server.URL)

	_, err := client.Complete(context.Background(), Request{
		Provider: ProviderOpenAI,
		Model:    "gpt-4-turbo",
		APIKey:   "sk-test",
		Prompt:   "hello",
	})
	require.Error(t, err)
	assert.Equal(t, KindTransport, KindOf(err))
}

func TestPingUsesMinimalCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(5), body["max_tokens"])
		w.Write([]byte(openAIResponse("Hi")))
	}))
	defer server.Close()

	client := NewProviderClient()
	client.SetBaseURL(ProviderOpenAI, server.URL)

	err := client.Ping(context.Background(), ProviderOpenAI, "gpt-3.5-turbo", "sk-test")
	assert.NoError(t, err)
}

func TestPingSurfacesAuthFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewProviderClient()
	client.SetBaseURL(ProviderOpenAI, server.URL)

	err := client.Ping(context.Background(), ProviderOpenAI, "gpt-3.5-turbo", "sk-bad")
	require.Error(t, err)
	assert.Equal(t, KindAuth, KindOf(err))
}

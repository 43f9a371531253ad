// Package openai wraps an OpenAI-compatible chat-completion endpoint behind
// the two flows the application needs: "more like this" movie recommendations
// and a free-text chat reply.
//
// Retry policy (mirrors the upstream API's documented behavior):
//   - HTTP 429: wait for the server-supplied Retry-After duration, or an
//     exponential fallback when the header is absent, then retry without an
//     attempt limit. Context cancellation still aborts the wait.
//   - Transport failures and other non-2xx statuses: exponential backoff with
//     at most MaxRetries retries, then the error propagates to the caller.
//
// Response post-processing: markdown code-fence markers are stripped before
// parsing. SimilarMovies parses the cleaned text as a JSON array of
// {title, year, reason}; parse failures propagate so the HTTP layer can
// decide how to degrade. ChatResponse rewrites ^Title^ delimiters into the
// anchor convention the front end turns into clickable links, and degrades to
// a fixed apology string on any failure.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	defaultBaseURL      = "https://api.openai.com/v1"
	defaultModel        = "gpt-4o-mini"
	defaultTemperature  = 0.7
	defaultMaxTokens    = 1000
	defaultMaxRetries   = 3
	defaultInitialDelay = time.Second

	// apologyReply is returned by ChatResponse when the completion call
	// ultimately fails.
	apologyReply = "Sorry, I couldn't process your request. Please try again."

	// caretInstruction is appended to free-text chat prompts so the model
	// marks movie titles with a delimiter the front end can link.
	caretInstruction = " return any movies in this prompt with ^ on both sides not quotations or any other characters!"
)

// MovieRecommendation is one entry of the "more like this" result. JSON
// property matching is case-insensitive (encoding/json default), so model
// output using "Title"/"Year"/"Reason" parses the same.
type MovieRecommendation struct {
	Title  string `json:"title"`
	Year   int    `json:"year"`
	Reason string `json:"reason"`
}

// Service is the chat-completion client. The zero value is not usable; set
// at least APIKey. Unset knobs fall back to the package defaults above.
type Service struct {
	HTTPClient   *http.Client
	BaseURL      string
	APIKey       string
	Model        string
	Temperature  float64
	MaxTokens    int
	MaxRetries   int
	InitialDelay time.Duration
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (s *Service) httpClient() *http.Client {
	if s.HTTPClient != nil {
		return s.HTTPClient
	}
	return http.DefaultClient
}

func (s *Service) baseURL() string {
	if s.BaseURL != "" {
		return strings.TrimRight(s.BaseURL, "/")
	}
	return defaultBaseURL
}

func (s *Service) model() string {
	if s.Model != "" {
		return s.Model
	}
	return defaultModel
}

func (s *Service) temperature() float64 {
	if s.Temperature > 0 {
		return s.Temperature
	}
	return defaultTemperature
}

func (s *Service) maxTokens() int {
	if s.MaxTokens > 0 {
		return s.MaxTokens
	}
	return defaultMaxTokens
}

func (s *Service) maxRetries() int {
	if s.MaxRetries > 0 {
		return s.MaxRetries
	}
	return defaultMaxRetries
}

func (s *Service) initialDelay() time.Duration {
	if s.InitialDelay > 0 {
		return s.InitialDelay
	}
	return defaultInitialDelay
}

// ChatCompletion sends prompt as a single user message and returns the first
// choice's content. See the package comment for the retry policy.
func (s *Service) ChatCompletion(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model:       s.model(),
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: s.temperature(),
		MaxTokens:   s.maxTokens(),
	})
	if err != nil {
		return "", err
	}

	attempt := 0
	for {
		content, retryAfter, err := s.post(ctx, payload)
		switch {
		case err == nil:
			return content, nil

		case retryAfter >= 0:
			// Rate limited. Honor the server's Retry-After when present,
			// otherwise back off exponentially; 429 retries are unbounded.
			delay := retryAfter
			if delay == 0 {
				delay = s.initialDelay() << attempt
			}
			log.Warn().Dur("delay", delay).Msg("openai: rate limited, retrying")
			if err := sleep(ctx, delay); err != nil {
				return "", err
			}

		default:
			attempt++
			if attempt > s.maxRetries() {
				return "", err
			}
			delay := s.initialDelay() << attempt
			log.Warn().Err(err).Int("attempt", attempt).Dur("delay", delay).
				Msg("openai: request failed, retrying")
			if serr := sleep(ctx, delay); serr != nil {
				return "", serr
			}
		}
	}
}

// post performs one chat-completion request. On 429 it returns a
// non-negative retryAfter (0 when the header is absent or unparseable); in
// every other failure mode retryAfter is -1.
func (s *Service) post(ctx context.Context, payload []byte) (content string, retryAfter time.Duration, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL()+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", -1, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.APIKey)

	resp, err := s.httpClient().Do(req)
	if err != nil {
		return "", -1, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", parseRetryAfter(resp.Header.Get("Retry-After")), nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", -1, fmt.Errorf("openai: unexpected status %s", resp.Status)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", -1, err
	}
	log.Debug().RawJSON("response", raw).Msg("openai: raw completion response")

	var parsed chatCompletionResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", -1, err
	}
	if len(parsed.Choices) == 0 {
		return "", -1, nil
	}
	return parsed.Choices[0].Message.Content, -1, nil
}

// SimilarMovies asks for five recommendations similar to title and parses
// the reply. Completion and parse errors propagate; the HTTP layer degrades
// them to an empty list.
func (s *Service) SimilarMovies(ctx context.Context, title string) ([]MovieRecommendation, error) {
	prompt := fmt.Sprintf(
		"Provide 5 movies similar to '%s'. For each movie include:\n"+
			"- Title\n- Release year\n- Brief reason for the recommendation\n\n"+
			"Format the response as a JSON array with properties: title, year, reason.",
		title,
	)

	reply, err := s.ChatCompletion(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var recs []MovieRecommendation
	if err := json.Unmarshal([]byte(stripCodeFences(reply)), &recs); err != nil {
		return nil, fmt.Errorf("openai: parse recommendations: %w", err)
	}
	if recs == nil {
		recs = []MovieRecommendation{}
	}
	return recs, nil
}

// ChatResponse answers a free-text query, converting ^Title^ markers into
// the quoted-link anchors consumed by the front end. Any failure degrades to
// a fixed apology string instead of an error.
func (s *Service) ChatResponse(ctx context.Context, query string) string {
	reply, err := s.ChatCompletion(ctx, query+caretInstruction)
	if err != nil {
		log.Error().Err(err).Msg("openai: chat response failed")
		return apologyReply
	}
	return linkMovieTitles(stripCodeFences(reply))
}

// caretTitleRE matches a movie title wrapped in the caret delimiters the
// model is instructed to emit.
var caretTitleRE = regexp.MustCompile(`\^([^\^]+)\^`)

// linkMovieTitles rewrites ^Title^ into an anchor the front end styles as a
// clickable movie link, joining non-blank lines with <br>.
func linkMovieTitles(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, caretTitleRE.ReplaceAllStringFunc(line, func(m string) string {
			title := strings.Trim(m, "^")
			return fmt.Sprintf(`<a href="#" class="quoted-link" data-movie="%s">%q</a>`, title, title)
		}))
	}
	return strings.Join(lines, "<br>")
}

// stripCodeFences removes the ```json fence markers some models wrap JSON
// replies in.
func stripCodeFences(s string) string {
	s = strings.ReplaceAll(s, "```json\n", "")
	s = strings.ReplaceAll(s, "\n```", "")
	return strings.TrimSpace(s)
}

// parseRetryAfter interprets a Retry-After header as either delta-seconds or
// an HTTP date. Unparseable or absent values yield 0 so the caller falls back
// to exponential delay.
func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// sleep blocks for d or until ctx is done, returning the context error in
// the latter case.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

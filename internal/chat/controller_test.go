package chat

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/comigor/damon-go/internal/history"
	"github.com/comigor/damon-go/internal/transcript"
	"github.com/comigor/damon-go/pkg/damonapi"
)

type mockService struct {
	mu         sync.Mutex
	askCalls   []string
	AskFunc    func(ctx context.Context, query string) (string, error)
	UploadFunc func(ctx context.Context, filename string, content io.Reader) (string, error)
}

func (m *mockService) Ask(ctx context.Context, query string) (string, error) {
	m.mu.Lock()
	m.askCalls = append(m.askCalls, query)
	m.mu.Unlock()
	return m.AskFunc(ctx, query)
}

func (m *mockService) Upload(ctx context.Context, filename string, content io.Reader) (string, error) {
	return m.UploadFunc(ctx, filename, content)
}

type recordingSpeaker struct {
	mu     sync.Mutex
	spoken []string
}

func (r *recordingSpeaker) Speak(text string) {
	r.mu.Lock()
	r.spoken = append(r.spoken, text)
	r.mu.Unlock()
}

type recordingSelector struct {
	options []string
	value   string
}

func (s *recordingSelector) AddOption(name string) { s.options = append(s.options, name) }
func (s *recordingSelector) SetValue(name string)  { s.value = name }

func newController(svc Service, voice bool, opts ...Option) (*Controller, *history.MemoryStorage) {
	mem := history.NewMemoryStorage()
	return New(svc, transcript.New(), history.NewStore(mem, ""), NewState(voice), opts...), mem
}

func texts(tr *transcript.Transcript) []string {
	var out []string
	for _, m := range tr.Messages() {
		out = append(out, m.Text)
	}
	return out
}

func TestSendMessage_Success(t *testing.T) {
	svc := &mockService{AskFunc: func(ctx context.Context, q string) (string, error) {
		return "Forever, darling.", nil
	}}
	speaker := &recordingSpeaker{}
	c, _ := newController(svc, true, WithSpeaker(speaker))

	require.True(t, c.SendMessage(context.Background(), "  What is the meaning of eternity?  "))

	msgs := c.Transcript().Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, transcript.SenderUser, msgs[0].Sender)
	require.Equal(t, "What is the meaning of eternity?", msgs[0].Text)
	require.Equal(t, transcript.SenderAssistant, msgs[1].Sender)
	require.Equal(t, "Forever, darling.", msgs[1].Text)
	require.False(t, msgs[1].Transient)
	require.Equal(t, []string{"What is the meaning of eternity?"}, svc.askCalls)
	require.Equal(t, []string{"Forever, darling."}, speaker.spoken)
}

func TestSendMessage_BlankInputIgnored(t *testing.T) {
	svc := &mockService{AskFunc: func(ctx context.Context, q string) (string, error) {
		t.Fatalf("unexpected ask: %q", q)
		return "", nil
	}}
	c, _ := newController(svc, true)

	require.False(t, c.SendMessage(context.Background(), ""))
	require.False(t, c.SendMessage(context.Background(), "   "))
	require.Zero(t, c.Transcript().Len())
	require.Empty(t, svc.askCalls)
}

func TestSendMessage_LoadingShownWhilePending(t *testing.T) {
	release := make(chan struct{})
	asked := make(chan struct{})
	svc := &mockService{AskFunc: func(ctx context.Context, q string) (string, error) {
		close(asked)
		<-release
		return "Patience.", nil
	}}
	c, _ := newController(svc, false)

	done := make(chan struct{})
	go func() {
		c.SendMessage(context.Background(), "hurry")
		close(done)
	}()
	<-asked
	last, _ := c.Transcript().Last()
	require.True(t, last.Transient)
	require.Equal(t, LoadingText, last.Text)

	close(release)
	<-done
	for _, m := range c.Transcript().Messages() {
		require.False(t, m.Transient)
	}
}

func TestSendMessage_Failure(t *testing.T) {
	svc := &mockService{AskFunc: func(ctx context.Context, q string) (string, error) {
		return "", errors.New("dial tcp: connection refused")
	}}
	speaker := &recordingSpeaker{}
	c, _ := newController(svc, true, WithSpeaker(speaker))

	c.SendMessage(context.Background(), "hello")

	require.Equal(t, []string{
		"hello",
		"My connection to the ether is disrupted. (dial tcp: connection refused)",
	}, texts(c.Transcript()))
	require.Empty(t, speaker.spoken)
}

func TestSendMessage_HTTP500AgainstService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, _ := newController(damonapi.NewClient(srv.URL, time.Second), false)
	c.SendMessage(context.Background(), "anyone there?")

	last, ok := c.Transcript().Last()
	require.True(t, ok)
	require.True(t, strings.HasPrefix(last.Text, "My connection to the ether is disrupted."))
	require.Contains(t, last.Text, "ether is disrupted.")
	require.Contains(t, last.Text, damonapi.AskFailedReason)
	require.Equal(t, 2, c.Transcript().Len())
}

func TestSendMessage_MutedBeforeReplyArrives(t *testing.T) {
	release := make(chan struct{})
	svc := &mockService{AskFunc: func(ctx context.Context, q string) (string, error) {
		<-release
		return "Shh.", nil
	}}
	speaker := &recordingSpeaker{}
	c, _ := newController(svc, true, WithSpeaker(speaker))

	done := make(chan struct{})
	go func() {
		c.SendMessage(context.Background(), "speak")
		close(done)
	}()
	c.State().SetVoiceEnabled(false)
	close(release)
	<-done

	require.Empty(t, speaker.spoken)
	last, _ := c.Transcript().Last()
	require.Equal(t, "Shh.", last.Text)
}

func TestSendMessage_ConcurrentSendsKeepTheirOwnLoading(t *testing.T) {
	releaseFirst := make(chan struct{})
	svc := &mockService{AskFunc: func(ctx context.Context, q string) (string, error) {
		if q == "first" {
			<-releaseFirst
		}
		return "re: " + q, nil
	}}
	c, _ := newController(svc, false)

	done := make(chan struct{})
	go func() {
		c.SendMessage(context.Background(), "first")
		close(done)
	}()
	require.Eventually(t, func() bool { return c.Transcript().Len() == 2 }, time.Second, time.Millisecond)

	c.SendMessage(context.Background(), "second")
	transient := 0
	for _, m := range c.Transcript().Messages() {
		if m.Transient {
			transient++
		}
	}
	require.Equal(t, 1, transient, "the first send is still loading")

	close(releaseFirst)
	<-done
	require.Equal(t, []string{"first", "second", "re: second", "re: first"}, texts(c.Transcript()))
}

func TestSendMessage_ReplyAfterNewChatDropped(t *testing.T) {
	release := make(chan struct{})
	svc := &mockService{AskFunc: func(ctx context.Context, q string) (string, error) {
		<-release
		return "stale", nil
	}}
	speaker := &recordingSpeaker{}
	c, _ := newController(svc, true, WithSpeaker(speaker))

	done := make(chan struct{})
	go func() {
		c.SendMessage(context.Background(), "old question")
		close(done)
	}()
	require.Eventually(t, func() bool { return c.Transcript().Len() == 2 }, time.Second, time.Millisecond)
	c.NewChat()
	close(release)
	<-done

	require.Equal(t, []string{GreetingText}, texts(c.Transcript()))
	require.Empty(t, speaker.spoken)
}

func TestUploadFile_Success(t *testing.T) {
	svc := &mockService{UploadFunc: func(ctx context.Context, name string, r io.Reader) (string, error) {
		data, _ := io.ReadAll(r)
		require.Equal(t, "pdf bytes", string(data))
		return "I have absorbed the essence of " + name + ".", nil
	}}
	sel := &recordingSelector{}
	c, mem := newController(svc, false, WithSelector(sel))

	require.NoError(t, c.UploadFile(context.Background(), "codex.pdf", strings.NewReader("pdf bytes")))
	require.NoError(t, c.UploadFile(context.Background(), "codex.pdf", strings.NewReader("pdf bytes")))

	require.Equal(t, 1, c.History().Len())
	raw, _, _ := mem.GetItem(history.DefaultKey)
	require.JSONEq(t, `["codex.pdf"]`, raw)
	require.Equal(t, "codex.pdf", sel.value)
	require.Equal(t, []string{
		"Uploading codex.pdf...",
		"I have absorbed the essence of codex.pdf.",
		"Uploading codex.pdf...",
		"I have absorbed the essence of codex.pdf.",
	}, texts(c.Transcript()))
}

func TestUploadFile_Rejected(t *testing.T) {
	svc := &mockService{UploadFunc: func(ctx context.Context, name string, r io.Reader) (string, error) {
		return "", &damonapi.StatusError{StatusCode: 400, Reason: damonapi.UploadFailedReason}
	}}
	sel := &recordingSelector{}
	c, mem := newController(svc, false, WithSelector(sel))

	require.NoError(t, c.UploadFile(context.Background(), "blank.pdf", strings.NewReader("")))

	last, _ := c.Transcript().Last()
	require.Equal(t, "I rejected this scroll. Upload failed", last.Text)
	require.Zero(t, c.History().Len())
	_, ok, _ := mem.GetItem(history.DefaultKey)
	require.False(t, ok)
	require.Empty(t, sel.options)
}

func TestUploadPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tome.pdf")
	require.NoError(t, os.WriteFile(path, []byte("tome"), 0o644))

	var gotName string
	svc := &mockService{UploadFunc: func(ctx context.Context, name string, r io.Reader) (string, error) {
		gotName = name
		return "ok", nil
	}}
	c, _ := newController(svc, false)

	require.NoError(t, c.UploadPath(context.Background(), path))
	require.Equal(t, "tome.pdf", gotName)

	require.NoError(t, c.UploadPath(context.Background(), filepath.Join(t.TempDir(), "missing.pdf")))
	last, _ := c.Transcript().Last()
	require.True(t, strings.HasPrefix(last.Text, "I rejected this scroll. "))
}

func TestFocus(t *testing.T) {
	c, _ := newController(&mockService{}, false)
	c.History().Add("a.pdf")
	c.History().Add("b.pdf")

	require.True(t, c.Focus("a.pdf"))
	require.True(t, c.Focus("b.pdf"))
	require.False(t, c.Focus("nope.pdf"))

	sel, _ := c.History().Selected()
	require.Equal(t, "b.pdf", sel)
	require.Equal(t, []string{
		"I am focusing my attention on a.pdf...",
		"I am focusing my attention on b.pdf...",
	}, texts(c.Transcript()))
}

func TestToggleVoice(t *testing.T) {
	speaker := &recordingSpeaker{}
	c, _ := newController(&mockService{}, true, WithSpeaker(speaker))

	require.False(t, c.ToggleVoice())
	require.Empty(t, speaker.spoken)
	require.True(t, c.ToggleVoice())
	require.Equal(t, []string{VoiceEnabledText}, speaker.spoken)
}

func TestLoadHistory(t *testing.T) {
	c, mem := newController(&mockService{}, false)
	require.NoError(t, mem.SetItem(history.DefaultKey, `["a.pdf","b.pdf"]`))
	c.LoadHistory()
	require.Equal(t, 2, c.History().Len())
}

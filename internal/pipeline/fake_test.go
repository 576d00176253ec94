package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/nao1215/fpprobe/internal/browser"
	"github.com/nao1215/fpprobe/internal/config"
	"github.com/nao1215/fpprobe/internal/verify"
)

const validBody = `{"score":87.5,"hasLied":false,"bot":false,"fingerprint":"abc123","extra":1}`

// fakeSession records calls and returns canned results.
type fakeSession struct {
	mu    sync.Mutex
	calls []string

	uaErr    error
	navErr   error
	shotErr  error
	pdfErr   error
	evalErr  error
	body     string
	closeErr error
	closed   int
}

func (s *fakeSession) called(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, name)
}

func (s *fakeSession) SetUserAgent(context.Context, string) error {
	s.called("ua")
	return s.uaErr
}

func (s *fakeSession) Navigate(context.Context, string) error {
	s.called("navigate")
	return s.navErr
}

func (s *fakeSession) FullScreenshot(context.Context) ([]byte, error) {
	s.called("screenshot")
	if s.shotErr != nil {
		return nil, s.shotErr
	}
	return []byte("\x89PNG fake"), nil
}

func (s *fakeSession) PrintPDF(context.Context, config.PaperSize) ([]byte, error) {
	s.called("pdf")
	if s.pdfErr != nil {
		return nil, s.pdfErr
	}
	return []byte("%PDF-1.4 fake"), nil
}

func (s *fakeSession) Evaluate(_ context.Context, _ string, out any) error {
	s.called("evaluate")
	if s.evalErr != nil {
		return s.evalErr
	}
	body := s.body
	if body == "" {
		body = validBody
	}
	data, err := json.Marshal(verify.Reply{Status: 200, Body: body})
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	s.calls = append(s.calls, "close")
	return s.closeErr
}

// fakeLauncher hands out one prepared session per launch.
type fakeLauncher struct {
	mu        sync.Mutex
	sessions  []*fakeSession
	launchErr map[int]error
	launched  int
}

func newFakeLauncher(sessions ...*fakeSession) *fakeLauncher {
	return &fakeLauncher{sessions: sessions, launchErr: map[int]error{}}
}

func (l *fakeLauncher) Launch(context.Context) (browser.Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.launched++
	if err, ok := l.launchErr[l.launched]; ok {
		return nil, err
	}
	if l.launched > len(l.sessions) {
		return nil, errors.New("no more sessions")
	}
	return l.sessions[l.launched-1], nil
}

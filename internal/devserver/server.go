// Package devserver serves website fixtures in the dashboard backend's
// envelope format. It backs the tipdash demo and the api client tests.
package devserver

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/unkn0wn-root/tipcache/api"
)

//go:embed fixtures.yaml
var defaultFixtures []byte

// Fixtures is the YAML document the server answers from.
type Fixtures struct {
	Latency  time.Duration     `yaml:"latency"`
	Websites []api.Website     `yaml:"websites"`
	Failures map[string]string `yaml:"failures"` // id -> message answered with success:false
}

// DefaultFixtures returns the fixtures bundled with the binary.
func DefaultFixtures() (Fixtures, error) {
	return DecodeFixtures(bytes.NewReader(defaultFixtures))
}

// LoadFixtures reads fixtures from a YAML file.
func LoadFixtures(path string) (Fixtures, error) {
	f, err := os.Open(path)
	if err != nil {
		return Fixtures{}, fmt.Errorf("devserver: open fixtures: %w", err)
	}
	defer f.Close()
	return DecodeFixtures(f)
}

func DecodeFixtures(r io.Reader) (Fixtures, error) {
	var fx Fixtures
	if err := yaml.NewDecoder(r).Decode(&fx); err != nil && err != io.EOF {
		return Fixtures{}, fmt.Errorf("devserver: decode fixtures: %w", err)
	}
	for i, w := range fx.Websites {
		if w.ID == "" {
			return Fixtures{}, fmt.Errorf("devserver: website #%d has no id", i)
		}
	}
	return fx, nil
}

// Server is an http.Handler over a fixture set. Safe for concurrent use.
type Server struct {
	mu       sync.RWMutex
	sites    map[string]api.Website
	failures map[string]string
	latency  time.Duration
	hits     map[string]int
	log      *slog.Logger
	mux      *http.ServeMux
}

// New builds a server; a nil logger uses slog.Default.
func New(fx Fixtures, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		sites:    make(map[string]api.Website, len(fx.Websites)),
		failures: make(map[string]string, len(fx.Failures)),
		latency:  fx.Latency,
		hits:     make(map[string]int),
		log:      log,
		mux:      http.NewServeMux(),
	}
	for _, w := range fx.Websites {
		s.sites[w.ID] = w
	}
	for id, msg := range fx.Failures {
		s.failures[id] = msg
	}
	s.mux.HandleFunc("GET /websites/{id}", s.handleWebsite)
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

// Put adds or replaces a website.
func (s *Server) Put(site api.Website) {
	s.mu.Lock()
	s.sites[site.ID] = site
	s.mu.Unlock()
}

// Fail makes id answer with success:false and msg; an empty msg clears it.
func (s *Server) Fail(id, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg == "" {
		delete(s.failures, id)
		return
	}
	s.failures[id] = msg
}

// Hits reports how many requests reached id.
func (s *Server) Hits(id string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hits[id]
}

func (s *Server) handleWebsite(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	s.mu.Lock()
	s.hits[id]++
	site, found := s.sites[id]
	failure, failing := s.failures[id]
	latency := s.latency
	s.mu.Unlock()

	if latency > 0 {
		t := time.NewTimer(latency)
		select {
		case <-t.C:
		case <-r.Context().Done():
			t.Stop()
			s.log.Debug("client went away", "key", id)
			return
		}
	}

	codec := api.CodecFor[api.Envelope[api.Website]](r.Header.Get("Accept"))
	switch {
	case failing:
		s.write(w, codec, http.StatusOK, api.Fail[api.Website](failure))
	case !found:
		s.write(w, codec, http.StatusNotFound, api.Fail[api.Website]("website not found"))
	default:
		s.write(w, codec, http.StatusOK, api.OK(site))
	}
}

func (s *Server) write(w http.ResponseWriter, codec api.Codec[api.Envelope[api.Website]], status int, env api.Envelope[api.Website]) {
	b, err := codec.Encode(env)
	if err != nil {
		s.log.Error("encode response", "err", err)
		http.Error(w, "encode failure", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", codec.ContentType())
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

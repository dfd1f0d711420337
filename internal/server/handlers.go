package server

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"example.com/vgmgate/internal/common"
	"example.com/vgmgate/internal/manifest"
	"example.com/vgmgate/internal/report"
	"example.com/vgmgate/internal/rules"
	"example.com/vgmgate/internal/vgm"
)

// Server coordinates HTTP handlers and manages temporary artifacts produced by
// scan and validation requests.
type Server struct {
	artifacts   *ArtifactStore
	workDir     string
	uploadsDir  string
	rulePacks   map[string]string
	concurrency int
}

// Options configures server creation.
type Options struct {
	StorageDir  string
	RulePacks   map[string]string
	Concurrency int
}

// Artifact represents a file generated or stored by the daemon.
type Artifact struct {
	ID          string
	Path        string
	Name        string
	ContentType string
	Size        int64
	Kind        string
}

// ArtifactRef is the public representation returned in API responses.
type ArtifactRef struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ContentType string `json:"contentType,omitempty"`
	Size        int64  `json:"size,omitempty"`
	Kind        string `json:"kind,omitempty"`
}

// ArtifactStore keeps track of generated artifacts for later download.
type ArtifactStore struct {
	mu      sync.RWMutex
	entries map[string]Artifact
}

// NewServer constructs a Server rooted at a temporary workspace directory.
func NewServer(opts Options) (*Server, error) {
	storageDir := opts.StorageDir
	if storageDir == "" {
		storageDir = os.TempDir()
	}
	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return nil, err
	}
	workDir, err := os.MkdirTemp(storageDir, "vgmd-")
	if err != nil {
		return nil, err
	}
	uploadsDir := filepath.Join(workDir, "uploads")
	if err := os.MkdirAll(uploadsDir, 0o755); err != nil {
		os.RemoveAll(workDir)
		return nil, err
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	rulePacks := make(map[string]string)
	for profile, pack := range opts.RulePacks {
		if strings.TrimSpace(profile) == "" || strings.TrimSpace(pack) == "" {
			continue
		}
		rulePacks[profile] = pack
	}
	s := &Server{
		artifacts:   &ArtifactStore{entries: make(map[string]Artifact)},
		workDir:     workDir,
		uploadsDir:  uploadsDir,
		rulePacks:   rulePacks,
		concurrency: concurrency,
	}
	return s, nil
}

// Close removes any temporary state associated with the server.
func (s *Server) Close() error {
	if s == nil || s.workDir == "" {
		return nil
	}
	return os.RemoveAll(s.workDir)
}

func (s *Server) tempPath(pattern string) (string, error) {
	f, err := os.CreateTemp(s.workDir, pattern)
	if err != nil {
		return "", err
	}
	name := f.Name()
	f.Close()
	return name, nil
}

func (s *Server) addArtifact(path, displayName, contentType, kind string) (Artifact, error) {
	if path == "" {
		return Artifact{}, errors.New("empty path")
	}
	info, err := os.Stat(path)
	if err != nil {
		return Artifact{}, err
	}
	id := randomID()
	art := Artifact{
		ID:          id,
		Path:        path,
		Name:        displayName,
		ContentType: contentType,
		Size:        info.Size(),
		Kind:        kind,
	}
	if art.Name == "" {
		art.Name = filepath.Base(path)
	}
	if art.ContentType == "" {
		art.ContentType = guessContentType(art.Name)
	}
	s.artifacts.mu.Lock()
	s.artifacts.entries[id] = art
	s.artifacts.mu.Unlock()
	return art, nil
}

func (s *Server) getArtifact(id string) (Artifact, bool) {
	s.artifacts.mu.RLock()
	art, ok := s.artifacts.entries[id]
	s.artifacts.mu.RUnlock()
	return art, ok
}

func (s *Server) resolvePath(token string) (string, error) {
	if token == "" {
		return "", errors.New("empty input path")
	}
	if art, ok := s.getArtifact(token); ok {
		return art.Path, nil
	}
	abs := token
	if !filepath.IsAbs(token) {
		abs = filepath.Clean(token)
	}
	if _, err := os.Stat(abs); err != nil {
		return "", err
	}
	return abs, nil
}

// scanSummary is the response body of /scan.
type scanSummary struct {
	File         string `json:"file"`
	Size         int64  `json:"size"`
	Sha256       string `json:"sha256"`
	Version      string `json:"version"`
	TotalSamples uint32 `json:"totalSamples"`
	LoopSamples  uint32 `json:"loopSamples"`
	Rate         uint32 `json:"rate"`
	Commands     int    `json:"commands"`
	DataBlocks   int    `json:"dataBlocks"`
	GD3          *struct {
		TrackName string `json:"trackName"`
		GameName  string `json:"gameName"`
		System    string `json:"system"`
		Author    string `json:"author"`
	} `json:"gd3,omitempty"`
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Input   string `json:"input"`
		Profile string `json:"profile"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid json: %v", err), http.StatusBadRequest)
		return
	}
	inputPath, err := s.resolvePath(req.Input)
	if err != nil {
		http.Error(w, fmt.Sprintf("input resolve: %v", err), http.StatusBadRequest)
		return
	}
	data, err := os.ReadFile(inputPath)
	if err != nil {
		http.Error(w, fmt.Sprintf("read input: %v", err), http.StatusInternalServerError)
		return
	}
	plain, err := vgm.DecompressTransport(data)
	if err != nil {
		http.Error(w, fmt.Sprintf("transport: %v", err), http.StatusUnprocessableEntity)
		return
	}
	f, err := vgm.DecodeFile(plain, vgm.NewTracker(rules.LimitsForProfile(req.Profile)))
	if err != nil {
		http.Error(w, fmt.Sprintf("decode: %v", err), http.StatusUnprocessableEntity)
		return
	}
	dataBlocks := 0
	for _, cmd := range f.Commands {
		if _, ok := cmd.(vgm.DataBlock); ok {
			dataBlocks++
		}
	}
	sum := scanSummary{
		File:         filepath.Base(inputPath),
		Size:         int64(len(plain)),
		Sha256:       common.Sha256OfBytes(plain),
		Version:      versionString(f.Header.Version),
		TotalSamples: f.Header.TotalSamples,
		LoopSamples:  f.Header.LoopSamples,
		Rate:         f.Header.Rate,
		Commands:     len(f.Commands),
		DataBlocks:   dataBlocks,
	}
	if f.GD3 != nil {
		sum.GD3 = &struct {
			TrackName string `json:"trackName"`
			GameName  string `json:"gameName"`
			System    string `json:"system"`
			Author    string `json:"author"`
		}{
			TrackName: f.GD3.TrackNameEN,
			GameName:  f.GD3.GameNameEN,
			System:    f.GD3.SystemNameEN,
			Author:    f.GD3.AuthorEN,
		}
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	stream := r.URL.Query().Get("stream") == "true"
	var req struct {
		Inputs         []string        `json:"inputs"`
		Profile        string          `json:"profile"`
		RulePack       *rules.RulePack `json:"rulePack"`
		IncludeSamples *bool           `json:"includeSamples"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid json: %v", err), http.StatusBadRequest)
		return
	}
	if len(req.Inputs) == 0 {
		http.Error(w, "inputs required", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Profile) == "" {
		req.Profile = "default"
	}
	inputPath, err := s.resolvePath(req.Inputs[0])
	if err != nil {
		http.Error(w, fmt.Sprintf("input resolve: %v", err), http.StatusBadRequest)
		return
	}
	rp, err := s.loadRulePack(req.Profile, req.RulePack)
	if err != nil {
		http.Error(w, fmt.Sprintf("load rulepack: %v", err), http.StatusBadRequest)
		return
	}
	engine := rules.NewEngine(rp)
	engine.RegisterBuiltins()
	engine.SetConcurrency(s.concurrency)
	includeSamples := true
	if req.IncludeSamples != nil {
		includeSamples = *req.IncludeSamples
	}
	engine.SetConfigValue("diag.include_samples", includeSamples)
	ctx := &rules.Context{InputFile: inputPath, Profile: req.Profile}

	if stream {
		writer := NewNDJSONWriter(w)
		engine.SetDiagnosticCallback(func(d rules.Diagnostic) error {
			return writer.WriteDiagnostic(d)
		})
		w.Header().Set("Content-Type", "application/x-ndjson")
		diags, err := engine.Eval(ctx)
		engine.SetDiagnosticCallback(nil)
		if err != nil {
			_ = writer.WriteObject(map[string]any{
				"type":  "error",
				"error": err.Error(),
			})
			return
		}
		rep := engine.MakeAcceptance()
		arts, err := s.saveValidationArtifacts(engine, rep)
		if err != nil {
			_ = writer.WriteObject(map[string]any{"type": "error", "error": err.Error()})
			return
		}
		summary := struct {
			Type       string        `json:"type"`
			Acceptance any           `json:"acceptance"`
			Artifacts  []ArtifactRef `json:"artifacts"`
			Total      int           `json:"diagnostics"`
		}{
			Type:       "acceptance",
			Acceptance: rep,
			Artifacts:  arts,
			Total:      len(diags),
		}
		_ = writer.WriteObject(summary)
		return
	}

	diags, err := engine.Eval(ctx)
	if err != nil {
		http.Error(w, fmt.Sprintf("eval: %v", err), http.StatusInternalServerError)
		return
	}
	rep := engine.MakeAcceptance()
	arts, err := s.saveValidationArtifacts(engine, rep)
	if err != nil {
		http.Error(w, fmt.Sprintf("save artifacts: %v", err), http.StatusInternalServerError)
		return
	}
	resp := struct {
		Acceptance  rules.AcceptanceReport `json:"acceptance"`
		Diagnostics int                    `json:"diagnostics"`
		Artifacts   []ArtifactRef          `json:"artifacts"`
	}{
		Acceptance:  rep,
		Diagnostics: len(diags),
		Artifacts:   arts,
	}
	writeJSON(w, http.StatusOK, resp)
}

// saveValidationArtifacts writes the diagnostics stream, acceptance JSON and
// acceptance PDF to the workspace and registers them for download.
func (s *Server) saveValidationArtifacts(engine *rules.Engine, rep rules.AcceptanceReport) ([]ArtifactRef, error) {
	diagPath, err := s.tempPath("diagnostics-*.ndjson")
	if err != nil {
		return nil, err
	}
	if err := engine.WriteDiagnosticsNDJSON(diagPath); err != nil {
		return nil, err
	}
	accPath, err := s.tempPath("acceptance-*.json")
	if err != nil {
		return nil, err
	}
	if err := report.SaveAcceptanceJSON(rep, accPath); err != nil {
		return nil, err
	}
	pdfPath, err := s.tempPath("acceptance-*.pdf")
	if err != nil {
		return nil, err
	}
	if err := report.SaveAcceptancePDF(rep, pdfPath, report.PDFOptions{GeneratedBy: "vgmd"}); err != nil {
		return nil, err
	}
	diagArt, err := s.addArtifact(diagPath, "diagnostics.ndjson", "application/x-ndjson", "diagnostics")
	if err != nil {
		return nil, err
	}
	accArt, err := s.addArtifact(accPath, "acceptance_report.json", "application/json", "acceptance")
	if err != nil {
		return nil, err
	}
	pdfArt, err := s.addArtifact(pdfPath, "acceptance_report.pdf", "application/pdf", "acceptance")
	if err != nil {
		return nil, err
	}
	return []ArtifactRef{toRef(diagArt), toRef(accArt), toRef(pdfArt)}, nil
}

func (s *Server) handleManifest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Inputs  []string `json:"inputs"`
		ShaAlgo string   `json:"shaAlgo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid json: %v", err), http.StatusBadRequest)
		return
	}
	if len(req.Inputs) == 0 {
		http.Error(w, "inputs required", http.StatusBadRequest)
		return
	}
	if req.ShaAlgo == "" {
		req.ShaAlgo = "sha256"
	}
	if !strings.EqualFold(req.ShaAlgo, "sha256") {
		http.Error(w, "only sha256 supported", http.StatusBadRequest)
		return
	}
	var paths []string
	for _, in := range req.Inputs {
		resolved, err := s.resolvePath(in)
		if err != nil {
			http.Error(w, fmt.Sprintf("resolve %s: %v", in, err), http.StatusBadRequest)
			return
		}
		paths = append(paths, resolved)
	}
	m, err := manifest.Build(paths)
	if err != nil {
		http.Error(w, fmt.Sprintf("build manifest: %v", err), http.StatusInternalServerError)
		return
	}
	outPath, err := s.tempPath("manifest-*.json")
	if err != nil {
		http.Error(w, fmt.Sprintf("manifest temp: %v", err), http.StatusInternalServerError)
		return
	}
	if err := manifest.Save(m, outPath); err != nil {
		http.Error(w, fmt.Sprintf("write manifest: %v", err), http.StatusInternalServerError)
		return
	}
	art, err := s.addArtifact(outPath, "manifest.json", "application/json", "manifest")
	if err != nil {
		http.Error(w, fmt.Sprintf("register manifest: %v", err), http.StatusInternalServerError)
		return
	}
	resp := struct {
		Manifest manifest.Manifest `json:"manifest"`
		Artifact ArtifactRef       `json:"artifact"`
	}{
		Manifest: m,
		Artifact: toRef(art),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleProfiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, rules.Profiles)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleArtifactList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.listArtifacts())
}

func (s *Server) handleArtifactDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/artifacts/")
	if id == "" {
		http.NotFound(w, r)
		return
	}
	art, ok := s.getArtifact(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	f, err := os.Open(art.Path)
	if err != nil {
		http.Error(w, fmt.Sprintf("open artifact: %v", err), http.StatusInternalServerError)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		http.Error(w, fmt.Sprintf("stat artifact: %v", err), http.StatusInternalServerError)
		return
	}
	if art.ContentType != "" {
		w.Header().Set("Content-Type", art.ContentType)
	}
	w.Header().Set("Content-Length", fmt.Sprintf("%d", info.Size()))
	disposition := fmt.Sprintf("attachment; filename=\"%s\"", art.Name)
	w.Header().Set("Content-Disposition", disposition)
	io.Copy(w, f)
}

func (s *Server) loadRulePack(profile string, override *rules.RulePack) (rules.RulePack, error) {
	if override != nil && len(override.Rules) > 0 {
		return *override, nil
	}
	return rules.ResolveRulePack(s.rulePacks[profile], profile)
}

func versionString(bcd uint32) string {
	dec := vgm.BCDToDecimal(bcd)
	return fmt.Sprintf("%d.%02d", dec/100, dec%100)
}

func toRef(art Artifact) ArtifactRef {
	return ArtifactRef{
		ID:          art.ID,
		Name:        art.Name,
		ContentType: art.ContentType,
		Size:        art.Size,
		Kind:        art.Kind,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func guessContentType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".json":
		return "application/json"
	case ".yaml", ".yml":
		return "application/yaml"
	case ".ndjson", ".jsonl":
		return "application/x-ndjson"
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".txt":
		return "text/plain"
	case ".vgm", ".vgz":
		return "application/octet-stream"
	default:
		return "application/octet-stream"
	}
}

func randomID() string {
	var b [12]byte
	if _, err := rand.Read(b[:]); err != nil {
		now := time.Now().UTC()
		return fmt.Sprintf("%d%06d", now.UnixNano(), os.Getpid())
	}
	return hex.EncodeToString(b[:])
}

func (s *Server) listArtifacts() []ArtifactRef {
	s.artifacts.mu.RLock()
	refs := make([]ArtifactRef, 0, len(s.artifacts.entries))
	for _, art := range s.artifacts.entries {
		refs = append(refs, toRef(art))
	}
	s.artifacts.mu.RUnlock()
	sort.Slice(refs, func(i, j int) bool { return refs[i].ID < refs[j].ID })
	return refs
}

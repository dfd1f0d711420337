package server

import "net/http"

// NewRouter wires HTTP routes to the server's handlers.
func NewRouter(s *Server) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/scan", s.handleScan)
	mux.HandleFunc("/validate", s.handleValidate)
	mux.HandleFunc("/manifest", s.handleManifest)
	mux.HandleFunc("/profiles", s.handleProfiles)
	mux.HandleFunc("/upload", s.handleUpload)
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/artifacts", s.handleArtifactList)
	mux.HandleFunc("/artifacts/", s.handleArtifactDownload)
	return mux
}

package server

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
)

// uploadSniffLen is how many leading bytes of an upload are inspected
// before any of it is written to the uploads directory.
const uploadSniffLen = 4

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseMultipartForm(512 << 20); err != nil {
		http.Error(w, fmt.Sprintf("parse multipart: %v", err), http.StatusBadRequest)
		return
	}
	if r.MultipartForm == nil {
		http.Error(w, "no files provided", http.StatusBadRequest)
		return
	}
	var refs []ArtifactRef
	for _, files := range r.MultipartForm.File {
		for _, fh := range files {
			ref, err := s.saveUploadedVGM(fh)
			if err != nil {
				http.Error(w, fmt.Sprintf("save upload %s: %v", fh.Filename, err), http.StatusBadRequest)
				return
			}
			refs = append(refs, ref)
		}
	}
	if len(refs) == 0 {
		http.Error(w, "no files uploaded", http.StatusBadRequest)
		return
	}
	resp := struct {
		Files []ArtifactRef `json:"files"`
	}{Files: refs}
	writeJSON(w, http.StatusOK, resp)
}

// saveUploadedVGM stores one multipart part in the uploads directory.
// Only payloads starting with the "Vgm " ident or a gzip envelope are
// accepted; anything else is rejected before touching disk. Whether a
// gzip envelope actually holds a VGM file is decided later by the scan
// and validate paths.
func (s *Server) saveUploadedVGM(fh *multipart.FileHeader) (ArtifactRef, error) {
	if fh == nil {
		return ArtifactRef{}, fmt.Errorf("nil file header")
	}
	src, err := fh.Open()
	if err != nil {
		return ArtifactRef{}, err
	}
	defer src.Close()

	head := make([]byte, uploadSniffLen)
	n, err := io.ReadFull(src, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		return ArtifactRef{}, err
	}
	head = head[:n]
	if err := checkUploadMagic(head); err != nil {
		return ArtifactRef{}, err
	}

	ext := filepath.Ext(fh.Filename)
	pattern := "upload-*"
	if ext != "" {
		pattern = fmt.Sprintf("upload-*%s", ext)
	}
	dest, err := os.CreateTemp(s.uploadsDir, pattern)
	if err != nil {
		return ArtifactRef{}, err
	}
	if _, err := io.Copy(dest, io.MultiReader(bytes.NewReader(head), src)); err != nil {
		dest.Close()
		os.Remove(dest.Name())
		return ArtifactRef{}, err
	}
	dest.Close()
	art, err := s.addArtifact(dest.Name(), fh.Filename, guessContentType(fh.Filename), "upload")
	if err != nil {
		return ArtifactRef{}, err
	}
	return toRef(art), nil
}

func checkUploadMagic(head []byte) error {
	if len(head) >= 4 && string(head[:4]) == "Vgm " {
		return nil
	}
	if len(head) >= 2 && head[0] == 0x1F && head[1] == 0x8B {
		return nil
	}
	return fmt.Errorf("payload has neither VGM nor gzip magic")
}

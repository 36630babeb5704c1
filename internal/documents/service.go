package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"resume-tailor/internal/extract"
	"resume-tailor/internal/shared/storage/object"
	"resume-tailor/internal/shared/telemetry"
	"resume-tailor/internal/shared/util"
	"resume-tailor/resume/model"
)

const defaultLinkExpiry = 15 * time.Minute

// Service manages the base résumés the generator reads and the documents it
// writes.
type Service struct {
	BaseResumeDir string
	ResultsDir    string
	Mirror        object.ObjectStore
	LinkExpiry    time.Duration
	Now           func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// UploadBaseResume stores a .docx or .pdf résumé in the base-résumé
// directory, replacing a file of the same name. The payload must be
// readable as text.
func (s *Service) UploadBaseResume(ctx context.Context, fileName, mimeType string, r io.Reader) (Document, error) {
	name, err := util.SanitizeFileName(fileName)
	if err != nil {
		return Document{}, fmt.Errorf("%w: file name", ErrInvalidInput)
	}
	ext := strings.ToLower(filepath.Ext(name))
	if ext != ".docx" && ext != ".pdf" {
		return Document{}, fmt.Errorf("%w: only .docx and .pdf résumés are supported", ErrInvalidInput)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return Document{}, fmt.Errorf("read upload: %w", err)
	}
	if _, err := extract.ExtractTextFromBytes(ctx, data, mimeType, name); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := os.MkdirAll(s.BaseResumeDir, 0o755); err != nil {
		return Document{}, fmt.Errorf("mkdir: %w", err)
	}
	dst := filepath.Join(s.BaseResumeDir, name)
	if err := writeFile(dst, data); err != nil {
		return Document{}, err
	}
	telemetry.Info("documents.base_resume_uploaded", map[string]any{"file": name, "size": len(data)})
	return stat(dst)
}

// writeFile goes through a temp file so a half-written upload is never
// picked up as a base résumé.
func writeFile(dst string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	return os.Rename(tmpName, dst)
}

// ListBaseResumes returns the base résumés in the order the generator reads
// them.
func (s *Service) ListBaseResumes() ([]Document, error) {
	paths, err := extract.BaseResumes(s.BaseResumeDir)
	if err != nil {
		return nil, err
	}
	out := make([]Document, 0, len(paths))
	for _, path := range paths {
		doc, err := stat(path)
		if err != nil {
			continue
		}
		out = append(out, doc)
	}
	return out, nil
}

// DeleteBaseResume removes one base résumé.
func (s *Service) DeleteBaseResume(fileName string) error {
	path, err := resolve(s.BaseResumeDir, fileName)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove base resume: %w", err)
	}
	telemetry.Info("documents.base_resume_deleted", map[string]any{"file": filepath.Base(path)})
	return nil
}

// ListResults returns the files in the results directory, newest first.
func (s *Service) ListResults() ([]Document, error) {
	items, err := os.ReadDir(s.ResultsDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Document{}, nil
		}
		return nil, err
	}
	out := make([]Document, 0, len(items))
	for _, item := range items {
		if !item.Type().IsRegular() {
			continue
		}
		doc, err := stat(filepath.Join(s.ResultsDir, item.Name()))
		if err != nil {
			continue
		}
		out = append(out, doc)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].ModifiedAt.Equal(out[j].ModifiedAt) {
			return out[i].ModifiedAt.After(out[j].ModifiedAt)
		}
		return out[i].FileName < out[j].FileName
	})
	return out, nil
}

// ResultPath resolves a results file name to its path on disk.
func (s *Service) ResultPath(fileName string) (string, error) {
	return resolve(s.ResultsDir, fileName)
}

// Links presigns download URLs for a record's mirrored documents and their
// PDF copies. Files that were never promoted are skipped.
func (s *Service) Links(ctx context.Context, record model.Record) ([]Link, error) {
	presigner, ok := s.Mirror.(object.Presigner)
	if !ok {
		return nil, ErrNoMirror
	}
	expiry := s.LinkExpiry
	if expiry <= 0 {
		expiry = defaultLinkExpiry
	}
	expiresAt := s.now().Add(expiry)

	var links []Link
	for _, name := range documentNames(record) {
		if _, err := s.ResultPath(name); err != nil {
			continue
		}
		url, err := presigner.PresignGet(ctx, record.Meta.FileName+"/"+name, expiry)
		if err != nil {
			return nil, err
		}
		links = append(links, Link{FileName: name, URL: url, ExpiresAt: expiresAt})
	}
	return links, nil
}

func documentNames(record model.Record) []string {
	var names []string
	for _, path := range []string{record.Meta.ResumePath, record.Meta.CoverLetterPath} {
		if strings.TrimSpace(path) == "" {
			continue
		}
		base := filepath.Base(path)
		names = append(names, base, strings.TrimSuffix(base, filepath.Ext(base))+".pdf")
	}
	return names
}

func resolve(dir, fileName string) (string, error) {
	name, err := util.SanitizeFileName(fileName)
	if err != nil {
		return "", fmt.Errorf("%w: file name", ErrInvalidInput)
	}
	path := filepath.Join(dir, name)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", err
	}
	if !info.Mode().IsRegular() {
		return "", ErrNotFound
	}
	return path, nil
}

func stat(path string) (Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Document{}, err
	}
	return Document{
		FileName:   info.Name(),
		MimeType:   object.ContentType(info.Name()),
		SizeBytes:  info.Size(),
		ModifiedAt: info.ModTime().UTC(),
	}, nil
}

// Package archive retires phases without destroying history. The phase
// tree is copied under the archive directory, its index is marked
// archived in place, and a compressed snapshot with a digest goes to
// the state directory so the copy can be verified later.
package archive

import (
	"archive/tar"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"phx/internal/config"
	"phx/internal/errors"
	"phx/internal/logging"
	"phx/internal/paths"
	"phx/internal/phase"
	"phx/internal/scan"
)

// Result describes a completed archival.
type Result struct {
	Phase          int      `json:"phase"`
	ArchivePath    string   `json:"archivePath"` // docs-root-relative
	IndexPaths     []string `json:"indexPaths"`  // indexes marked archived
	SnapshotPath   string   `json:"snapshotPath"`
	SnapshotSHA256 string   `json:"snapshotSha256"`
	Files          int      `json:"files"`
}

// Archiver archives phases.
type Archiver struct {
	root     string // absolute docs root
	stateDir string // absolute .phx directory
	cfg      *config.Config
	logger   *logging.Logger
	now      func() time.Time
}

// NewArchiver creates an archiver for the given docs root and state directory.
func NewArchiver(root, stateDir string, cfg *config.Config, logger *logging.Logger) *Archiver {
	return &Archiver{
		root:     root,
		stateDir: stateDir,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Archive retires one phase: copy, snapshot, then mark the index.
// Marking happens last so a failed copy leaves the phase active.
// Every active index for the phase is marked, which also resolves an
// authority conflict by retiring all claimants at once.
func (a *Archiver) Archive(tree *scan.Tree, phaseNum int) (*Result, error) {
	pd := tree.Phases[phaseNum]
	if pd == nil {
		return nil, errors.New(errors.PhaseNotFound,
			fmt.Sprintf("phase %d not found under %s", phaseNum, tree.Root), nil)
	}

	stamp := a.now().UTC().Format("2006-01-02")
	relDest := fmt.Sprintf("%s/%s_phase_%d", a.cfg.Archive.Dir, stamp, phaseNum)
	destRoot := paths.JoinRoot(a.root, relDest)
	if _, err := os.Stat(destRoot); err == nil {
		return nil, errors.New(errors.InternalError,
			fmt.Sprintf("archive destination %s already exists", relDest), nil)
	}

	srcDir := paths.JoinRoot(a.root, pd.Path)
	destDir := filepath.Join(destRoot, filepath.Base(srcDir))

	files, err := copyTree(srcDir, destDir)
	if err != nil {
		return nil, errors.New(errors.InternalError,
			fmt.Sprintf("copying phase %d to %s", phaseNum, relDest), err)
	}

	result := &Result{
		Phase:       phaseNum,
		ArchivePath: relDest,
		Files:       files,
	}

	if a.cfg.Archive.Snapshots {
		snapPath, digest, err := a.writeSnapshot(srcDir, phaseNum)
		if err != nil {
			return nil, err
		}
		result.SnapshotPath = snapPath
		result.SnapshotSHA256 = digest
	}

	for _, idx := range tree.ActiveIndexes(phaseNum) {
		indexPath := paths.JoinRoot(a.root, idx.Path)
		content, err := os.ReadFile(indexPath)
		if err != nil {
			return nil, errors.New(errors.InternalError,
				fmt.Sprintf("reading index %s", idx.Path), err)
		}
		marked, err := phase.MarkArchived(content)
		if err != nil {
			return nil, errors.New(errors.InternalError,
				fmt.Sprintf("marking index %s archived", idx.Path), err)
		}
		if err := os.WriteFile(indexPath, marked, 0644); err != nil {
			return nil, errors.New(errors.InternalError,
				fmt.Sprintf("writing index %s", idx.Path), err)
		}
		result.IndexPaths = append(result.IndexPaths, idx.Path)
	}

	a.logger.Info("Archived phase", map[string]interface{}{
		"phase":    phaseNum,
		"dest":     relDest,
		"files":    files,
		"snapshot": result.SnapshotPath,
	})
	return result, nil
}

// writeSnapshot tars the phase directory into a zstd stream under the
// state directory and returns the snapshot path and digest of the
// compressed bytes.
func (a *Archiver) writeSnapshot(srcDir string, phaseNum int) (string, string, error) {
	snapDir := filepath.Join(a.stateDir, "snapshots")
	if err := os.MkdirAll(snapDir, 0755); err != nil {
		return "", "", errors.New(errors.InternalError, "creating snapshots directory", err)
	}

	name := uuid.NewString() + ".tar.zst"
	snapPath := filepath.Join(snapDir, name)

	file, err := os.Create(snapPath)
	if err != nil {
		return "", "", errors.New(errors.InternalError, "creating snapshot file", err)
	}
	defer file.Close()

	hasher := sha256.New()
	enc, err := zstd.NewWriter(io.MultiWriter(file, hasher),
		zstd.WithEncoderLevel(encoderLevel(a.cfg.Archive.CompressionLevel)))
	if err != nil {
		return "", "", errors.New(errors.InternalError, "creating zstd writer", err)
	}

	tw := tar.NewWriter(enc)
	prefix := filepath.Base(srcDir)
	walkErr := filepath.Walk(srcDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		if rel == "." {
			header.Name = prefix + "/"
		} else {
			header.Name = paths.Normalize(filepath.Join(prefix, rel))
			if info.IsDir() {
				header.Name += "/"
			}
		}
		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	})
	if walkErr != nil {
		tw.Close()
		enc.Close()
		return "", "", errors.New(errors.InternalError, "writing snapshot", walkErr)
	}
	if err := tw.Close(); err != nil {
		enc.Close()
		return "", "", errors.New(errors.InternalError, "closing snapshot tar", err)
	}
	if err := enc.Close(); err != nil {
		return "", "", errors.New(errors.InternalError, "closing snapshot stream", err)
	}

	return filepath.Join("snapshots", name), hex.EncodeToString(hasher.Sum(nil)), nil
}

// encoderLevel maps the config compression level names to zstd levels.
func encoderLevel(name string) zstd.EncoderLevel {
	switch name {
	case "fastest":
		return zstd.SpeedFastest
	case "better":
		return zstd.SpeedBetterCompression
	case "best":
		return zstd.SpeedBestCompression
	default:
		return zstd.SpeedDefault
	}
}

// copyTree copies a directory recursively and returns the number of
// regular files copied. Permissions are preserved; symlinks are not
// followed.
func copyTree(src, dest string) (int, error) {
	files := 0
	err := filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		if info.IsDir() {
			return os.MkdirAll(target, info.Mode().Perm())
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		if err := copyFile(path, target, info.Mode().Perm()); err != nil {
			return err
		}
		files++
		return nil
	})
	return files, err
}

func copyFile(src, dest string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

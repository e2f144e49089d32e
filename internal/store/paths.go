package store

import (
	"os"
	"path/filepath"
)

// On-disk names inside a vault directory. The layout is part of the public
// contract and must not change between releases.
const (
	SaltFileName   = ".vault_salt"
	VaultFileName  = "secrets.vault"
	AuditFileName  = "audit.log"
	BackupsDirName = "backups"

	FileMode = 0600
	DirMode  = 0700
)

// Paths contains every filesystem path used by one vault directory.
type Paths struct {
	Dir        string
	SaltFile   string
	VaultFile  string
	AuditFile  string
	BackupsDir string
}

// PathsFor returns the paths for a vault rooted at dir.
func PathsFor(dir string) *Paths {
	return &Paths{
		Dir:        dir,
		SaltFile:   filepath.Join(dir, SaltFileName),
		VaultFile:  filepath.Join(dir, VaultFileName),
		AuditFile:  filepath.Join(dir, AuditFileName),
		BackupsDir: filepath.Join(dir, BackupsDirName),
	}
}

// EnsureDir creates the vault directory if it doesn't exist.
func (p *Paths) EnsureDir() error {
	return os.MkdirAll(p.Dir, DirMode)
}

// EnsureBackupsDir creates the backups subdirectory if it doesn't exist.
func (p *Paths) EnsureBackupsDir() error {
	return os.MkdirAll(p.BackupsDir, DirMode)
}

// Exists reports whether both the salt file and the vault file are present.
func (p *Paths) Exists() bool {
	if _, err := os.Stat(p.SaltFile); err != nil {
		return false
	}
	if _, err := os.Stat(p.VaultFile); err != nil {
		return false
	}
	return true
}

// writeFileAtomic writes data to path through a temp file in the same
// directory followed by a rename, so a crash mid-write can never leave a
// half-written vault or salt file behind.
func writeFileAtomic(path string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

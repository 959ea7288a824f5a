// Package classpath implements the default classpath resolution a real
// deployment needs: directory and archive lookup for a binary class name,
// composed behind the classloader.Loader interface (spec.md §6). Both
// pieces are "external collaborators" per spec.md §1, but a runnable
// repository needs a concrete default.
package classpath

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"

	"corevm/classfile"
	"corevm/vmerrors"
)

// Entry resolves a single classpath element — a directory or an archive.
type Entry interface {
	// Load returns the parsed class for binaryName, or a ClassNotFound
	// VMError if this entry does not contain it.
	Load(binaryName string) (*classfile.ClassFile, error)
}

// DirLoader resolves "<root>/<name>.class" on a plain directory tree.
type DirLoader struct {
	Root string
}

func (d *DirLoader) Load(binaryName string) (*classfile.ClassFile, error) {
	path := filepath.Join(d.Root, filepath.FromSlash(binaryName)+".class")
	f, err := os.Open(path)
	if err != nil {
		return nil, vmerrors.Wrap(vmerrors.ClassNotFound, err, "%s not found under %s", binaryName, d.Root)
	}
	defer f.Close()
	cf, err := classfile.Parse(f)
	if err != nil {
		return nil, err
	}
	return checkThisClass(cf, binaryName)
}

// ArchiveLoader resolves "<name>.class" inside a .jar/.zip file.
type ArchiveLoader struct {
	ArchivePath string
}

func (a *ArchiveLoader) Load(binaryName string) (*classfile.ClassFile, error) {
	zr, err := zip.OpenReader(a.ArchivePath)
	if err != nil {
		return nil, vmerrors.Wrap(vmerrors.ClassNotFound, err, "opening archive %s", a.ArchivePath)
	}
	defer zr.Close()

	entryName := binaryName + ".class"
	for _, f := range zr.File {
		if f.Name == entryName {
			rc, err := f.Open()
			if err != nil {
				return nil, vmerrors.Wrap(vmerrors.MalformedClassFile, err, "opening %s in %s", entryName, a.ArchivePath)
			}
			defer rc.Close()
			cf, err := classfile.Parse(rc)
			if err != nil {
				return nil, err
			}
			return checkThisClass(cf, binaryName)
		}
	}
	return nil, vmerrors.New(vmerrors.ClassNotFound, "%s not found in %s", binaryName, a.ArchivePath)
}

func checkThisClass(cf *classfile.ClassFile, requested string) (*classfile.ClassFile, error) {
	if cf.ThisClass != requested {
		return nil, vmerrors.New(vmerrors.ClassNameMismatch,
			"loaded class declares this_class=%s, requested %s", cf.ThisClass, requested)
	}
	return cf, nil
}

// Path is an ordered list of classpath entries, split on the OS path-list
// separator (';' on Windows, ':' elsewhere). spec.md §9 notes the source
// is inconsistent about the separator; this resolves that ambiguity in
// favor of the OS-appropriate choice, as the open question invites.
type Path struct {
	entries []Entry
}

// NewPath parses a classpath string into its constituent entries.
func NewPath(classpath string) (*Path, error) {
	p := &Path{}
	if strings.TrimSpace(classpath) == "" {
		return p, nil
	}
	for _, raw := range strings.Split(classpath, string(os.PathListSeparator)) {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		info, err := os.Stat(raw)
		if err != nil {
			return nil, vmerrors.Wrap(vmerrors.ClassNotFound, err, "classpath entry %s", raw)
		}
		if info.IsDir() {
			p.entries = append(p.entries, &DirLoader{Root: raw})
		} else {
			p.entries = append(p.entries, &ArchiveLoader{ArchivePath: raw})
		}
	}
	return p, nil
}

// Load tries every entry in order, returning the first match.
func (p *Path) Load(binaryName string) (*classfile.ClassFile, error) {
	var lastErr error
	for _, e := range p.entries {
		cf, err := e.Load(binaryName)
		if err == nil {
			return cf, nil
		}
		if vmerrors.Is(err, vmerrors.ClassNotFound) {
			lastErr = err
			continue
		}
		return nil, err // malformed/mismatch is fatal, not a "try next entry" case
	}
	if lastErr == nil {
		lastErr = vmerrors.New(vmerrors.ClassNotFound, "%s not found on empty classpath", binaryName)
	}
	return nil, lastErr
}

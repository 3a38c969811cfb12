// Package mmap maps coefficient and spectrum files read-only into memory.
//
// Mapped files back blobstore.LocalStore, so large coefficient stores are
// decoded straight from the page cache without an intermediate copy.
//
//	m, err := mmap.Open("glm/iswREC.run.isw")
//	if err != nil { ... }
//	defer m.Close()
//	_ = m.Advise(mmap.AccessSequential)
//	payload := m.Bytes()
//
// On Unix the package uses mmap(2) and madvise(2); on Windows it uses
// CreateFileMapping and MapViewOfFile and Advise is a no-op.
package mmap

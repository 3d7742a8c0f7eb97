package fs

import (
	"testing"

	"github.com/stretchr/testify/require"

	"blockdev"
	"kerr"
	"ustr"
)

func TestCreateWriteReadRoundTrip(t *testing.T) {
	dev := blockdev.NewMemDevice(256)
	fsys := Format(dev)

	ino, errno := fsys.CreateFile(ustr.New("hello"))
	require.Equal(t, kerr.OK, errno)

	w := OpenFile(ino, OWronly)
	n, ok := w.Write([]byte("hello, kernel"))
	require.True(t, ok)
	require.Equal(t, 13, n)

	ino2, errno := fsys.Open(ustr.New("hello"), ORdonly)
	require.Equal(t, kerr.OK, errno)

	r := OpenFile(ino2, ORdonly)
	buf := make([]byte, 13)
	n, ok = r.Read(buf)
	require.True(t, ok)
	require.Equal(t, 13, n)
	require.Equal(t, "hello, kernel", string(buf))
}

func TestOpenMissingFileFails(t *testing.T) {
	dev := blockdev.NewMemDevice(256)
	fsys := Format(dev)

	_, errno := fsys.Open(ustr.New("nope"), ORdonly)
	require.NotEqual(t, kerr.OK, errno)
}

func TestUnlinkRemovesDirectoryEntry(t *testing.T) {
	dev := blockdev.NewMemDevice(256)
	fsys := Format(dev)

	_, errno := fsys.CreateFile(ustr.New("gone"))
	require.Equal(t, kerr.OK, errno)

	errno = fsys.Unlink(ustr.New("gone"))
	require.Equal(t, kerr.OK, errno)

	_, errno = fsys.Open(ustr.New("gone"), ORdonly)
	require.NotEqual(t, kerr.OK, errno)
}

func TestLinkSharesInodeAcrossTwoNames(t *testing.T) {
	dev := blockdev.NewMemDevice(256)
	fsys := Format(dev)

	ino, errno := fsys.CreateFile(ustr.New("a"))
	require.Equal(t, kerr.OK, errno)
	w := OpenFile(ino, OWronly)
	w.Write([]byte("data"))

	errno = fsys.Link(ustr.New("a"), ustr.New("b"))
	require.Equal(t, kerr.OK, errno)

	inoB, errno := fsys.Open(ustr.New("b"), ORdonly)
	require.Equal(t, kerr.OK, errno)
	require.Equal(t, uint32(4), inoB.Size())
}

func TestPersistsAcrossMount(t *testing.T) {
	dev := blockdev.NewMemDevice(256)
	fsys := Format(dev)
	ino, _ := fsys.CreateFile(ustr.New("persist"))
	OpenFile(ino, OWronly).Write([]byte("xyz"))
	fsys.Sync()

	remounted, ok := Mount(dev)
	require.True(t, ok)

	got, errno := remounted.Open(ustr.New("persist"), ORdonly)
	require.Equal(t, kerr.OK, errno)
	require.Equal(t, uint32(3), got.Size())
}

// Command mkdiskimg builds a disk image in the kernel's on-disk layout
// (super block + inode/data bitmaps + inode table + data area, spec §4.6)
// out of a directory of user ELF binaries, the host-side counterpart of
// the teaching kernel's mkfs tool.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"blockdev"
	"fs"
	"kerr"
	"ustr"
)

var (
	outputPath  string
	totalBlocks uint64
)

func main() {
	root := &cobra.Command{
		Use:   "mkdiskimg <skeldir>",
		Short: "Build a kernel disk image from a directory of user ELF binaries",
		Args:  cobra.ExactArgs(1),
		RunE:  run,
	}
	root.Flags().StringVarP(&outputPath, "output", "o", "disk.img", "output disk image path")
	root.Flags().Uint64VarP(&totalBlocks, "blocks", "n", 4096, "total blocks in the image")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	skelDir := args[0]

	dev := blockdev.NewMemDevice(totalBlocks)
	fsys := fs.Format(dev)

	entries, err := os.ReadDir(skelDir)
	if err != nil {
		return fmt.Errorf("read skel dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			// Single-level directory tree only (spec §4.6): subdirectories
			// in the skeleton are not walked.
			fmt.Fprintf(os.Stderr, "skipping subdirectory %s\n", e.Name())
			continue
		}
		if err := copyIn(fsys, skelDir, e.Name()); err != nil {
			return err
		}
	}
	fsys.Sync()

	return os.WriteFile(outputPath, dev.Bytes(), 0644)
}

func copyIn(fsys *fs.FS, skelDir, name string) error {
	data, err := os.ReadFile(filepath.Join(skelDir, name))
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	ino, errno := fsys.CreateFile(ustr.New(name))
	if errno != kerr.OK {
		return fmt.Errorf("create %s: errno %d", name, errno)
	}
	file := fs.OpenFile(ino, fs.OWronly)
	if n, ok := file.Write(data); !ok || n != len(data) {
		return fmt.Errorf("write %s: short write (%d/%d bytes)", name, n, len(data))
	}
	return nil
}

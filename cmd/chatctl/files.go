package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matheus3301/chatterm/internal/media"
)

func uploadCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <path>",
		Short: "Upload a file and print its stored descriptor",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			info, err := media.Inspect(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := e.context()
			defer cancel()
			fd, err := e.client.UploadFile(ctx, info.Path)
			if err != nil {
				return err
			}
			e.print(fd, func() {
				fmt.Printf("Stored %s as %s (%s, %s)\n", fd.OriginalName, fd.Filename, fd.Type, media.HumanSize(fd.Size))
			})
			return nil
		},
	}
}

func downloadCmd(e *env) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "download <stored-path> [name]",
		Short: "Download a stored attachment",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(_ *cobra.Command, args []string) error {
			name := ""
			if len(args) == 2 {
				name = args[1]
			}
			if out == "" {
				out = filepath.Base(args[0])
				if name != "" {
					out = filepath.Base(name)
				}
			}
			f, err := os.OpenFile(out, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
			if err != nil {
				return err
			}
			ctx, cancel := e.context()
			defer cancel()
			n, err := e.client.Download(ctx, args[0], name, f)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				_ = os.Remove(out)
				return err
			}
			e.print(map[string]any{"path": out, "size": n}, func() {
				fmt.Printf("Saved %s (%s)\n", out, media.HumanSize(n))
			})
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "destination file (must not exist)")
	return cmd
}

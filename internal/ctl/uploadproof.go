package ctl

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mvoronin/parceltrack/internal/netx"
)

var uploadContentType string

func init() {
	rootCmd.AddCommand(uploadProofCmd)
	uploadProofCmd.Flags().StringVar(&uploadContentType, "content-type", "image/jpeg", "Content type of the uploaded file")
}

var uploadProofCmd = &cobra.Command{
	Use:   "upload-proof <presigned-url> <file>",
	Short: "Upload a delivery-proof photo to a presigned URL",
	Long: "Completes the upload half of the proofs flow: the API hands out a " +
		"presigned PUT URL, this command pushes the photo straight to object storage.",
	Args: cobra.ExactArgs(2),
	RunE: runUploadProof,
}

func runUploadProof(cmd *cobra.Command, args []string) error {

	body, err := os.ReadFile(args[1])
	if err != nil {
		return err
	}

	if err := netx.UploadToPresignedURL(cmd.Context(), args[0], uploadContentType, body); err != nil {
		return err
	}

	fmt.Println("uploaded")
	return nil
}

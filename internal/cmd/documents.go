package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/kavach/internal/portal"
	"github.com/felixgeelhaar/kavach/internal/session"
	"github.com/felixgeelhaar/kavach/internal/tui"
	"github.com/felixgeelhaar/kavach/internal/ux"
)

func newDocumentsCmd(cc *CommandContext) *cobra.Command {
	documentsCmd := &cobra.Command{
		Use:     "documents",
		Aliases: []string{"docs"},
		Short:   "Upload, verify and delete claim documents",
		Long: `Manage documents attached to claims.

Uploads carry a BLAKE3 digest of the file so the portal can check the
content arrived intact.

Examples:
  kavach documents upload C-1024 ./discharge-summary.pdf --type discharge_summary
  kavach documents verify D-88
  kavach documents delete D-88`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	documentsCmd.AddCommand(
		newDocumentsUploadCmd(cc),
		newDocumentsVerifyCmd(cc),
		newDocumentsDeleteCmd(cc),
	)
	return documentsCmd
}

func documentTable(w io.Writer, docs []portal.Document) error {
	rows := make([][]string, 0, len(docs))
	for _, d := range docs {
		rows = append(rows, []string{d.ID, d.DocumentType, d.FileName, d.Status, yesNo(d.Verified)})
	}
	return ux.Table(w, []string{"ID", "TYPE", "FILE", "STATUS", "VERIFIED"}, rows)
}

func newDocumentsUploadCmd(cc *CommandContext) *cobra.Command {
	var docType string

	uploadCmd := &cobra.Command{
		Use:   "upload <claim-id> <file>",
		Short: "Attach a file to a claim",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			claimID, path := args[0], args[1]
			if err := cc.RequireSession(ctx, session.ClaimPage(cc.Session.CurrentCategory(ctx), claimID)); err != nil {
				return err
			}

			upload, err := portal.ReadDocumentUpload(path, docType)
			if err != nil {
				return err
			}
			cc.Logger.DebugContext(ctx, "uploading document",
				"claim_id", claimID,
				"file", upload.FileName,
				"size", upload.Size,
				"blake3", upload.Digest)

			doc, err := withBusy(cc, fmt.Sprintf("Uploading %s…", upload.FileName), func() (*portal.Document, error) {
				return cc.Client.UploadDocument(ctx, claimID, upload)
			})
			if err != nil {
				return err
			}

			if doc.Digest != "" && doc.Digest != upload.Digest {
				cc.Logger.WarnContext(ctx, "server digest differs from upload",
					"document_id", doc.ID, "sent", upload.Digest, "received", doc.Digest)
			}
			return cc.Output(message(doc, "Uploaded %s as document %s.", doc.FileName, doc.ID))
		},
	}

	uploadCmd.Flags().StringVar(&docType, "type", "other", "document type (e.g. bill, discharge_summary, prescription, id_proof)")
	return uploadCmd
}

func newDocumentsVerifyCmd(cc *CommandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <document-id>",
		Short: "Run document verification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := cc.RequireSession(ctx, ""); err != nil {
				return err
			}

			v, err := withBusy(cc, "Verifying document…", func() (*portal.DocumentVerification, error) {
				return cc.Client.VerifyDocument(ctx, args[0])
			})
			if err != nil {
				return err
			}
			return cc.Output(view{data: v, text: func(w io.Writer) error {
				confidence := ""
				if v.Confidence > 0 {
					confidence = percent(v.Confidence)
				}
				return fields(w,
					"Document", firstNonEmpty(v.DocumentID, args[0]),
					"Verified", yesNo(v.Verified),
					"Confidence", confidence,
					"Issues", list(v.Issues),
					"Message", v.Message,
				)
			}})
		},
	}
}

func newDocumentsDeleteCmd(cc *CommandContext) *cobra.Command {
	var yes bool

	deleteCmd := &cobra.Command{
		Use:   "delete <document-id>",
		Short: "Remove a document",
		Long:  `Remove a document from its claim. In a terminal you are asked to confirm unless --yes is given.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := cc.RequireSession(ctx, ""); err != nil {
				return err
			}

			if !yes && cc.CanPrompt() {
				ok, err := tui.PromptForConfirmation(fmt.Sprintf("Delete document %s?", args[0]), false)
				if err != nil {
					return err
				}
				if !ok {
					return cc.Output(message(map[string]bool{"deleted": false}, "Nothing deleted."))
				}
			}

			if _, err := withBusy(cc, "Deleting document…", func() (struct{}, error) {
				return struct{}{}, cc.Client.DeleteDocument(ctx, args[0])
			}); err != nil {
				return err
			}
			return cc.Output(message(map[string]string{"deleted": args[0]}, "Deleted document %s.", args[0]))
		},
	}

	deleteCmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return deleteCmd
}

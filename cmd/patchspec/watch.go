package main

import (
	"github.com/spf13/cobra"

	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	log "github.com/sirupsen/logrus"

	"patchspec/internal/lspsvc"
)

const lsName = "patchspec"

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run as a language server, republishing specs on every fixture save",
	RunE: func(cmd *cobra.Command, args []string) error {
		commonlog.Configure(1, nil)

		h := lspsvc.NewHandler()
		handler := protocol.Handler{
			Initialize:            h.Initialize,
			Initialized:           h.Initialized,
			Shutdown:              h.Shutdown,
			TextDocumentDidOpen:   h.TextDocumentDidOpen,
			TextDocumentDidSave:   h.TextDocumentDidSave,
			TextDocumentDidClose:  h.TextDocumentDidClose,
			TextDocumentDidChange: h.TextDocumentDidChange,
		}

		s := server.NewServer(&handler, lsName, false)
		log.Info("patchspec watch mode: listening on stdio")
		return s.RunStdio()
	},
}

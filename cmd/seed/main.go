// Command seed registers the built-in contract templates.
package main

import (
	"bytes"
	"context"
	"errors"
	"log"

	"DF-DOCGEN/internal"
	"DF-DOCGEN/internal/config"
	"DF-DOCGEN/internal/forms"
	"DF-DOCGEN/internal/logger"
	"DF-DOCGEN/internal/processor"
	"DF-DOCGEN/internal/services"
	"DF-DOCGEN/internal/storage"

	"go.uber.org/zap"
)

type seedTemplate struct {
	name        string
	description string
	paragraphs  []string
}

var builtins = []seedTemplate{
	{
		name:        forms.BuySellContract,
		description: "Purchase agreement between a seller and a buyer",
		paragraphs: []string{
			"PURCHASE AGREEMENT",
			"Seller: {{seller_name}}",
			"Buyer: {{buyer_name}}",
			"The seller agrees to sell and the buyer agrees to buy: {{item}}.",
			"Price: {{price}}",
			"Seller signature: ____________        Buyer signature: ____________",
		},
	},
	{
		name:        forms.LegalServicesContract,
		description: "Agreement for the provision of legal services",
		paragraphs: []string{
			"LEGAL SERVICES AGREEMENT",
			"Date: {{contract_date}}",
			"Client: {{client_name}}",
			"Provider: {{provider_name}}",
			"Services: {{service_description}}",
			"Fee: {{fee}}",
			"Client signature: ____________        Provider signature: ____________",
		},
	},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.NewLogger(cfg.Server.Environment, cfg.Log.Level)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	db, err := internal.InitDB(&cfg.Database)
	if err != nil {
		zapLogger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer internal.CloseDB(db)

	ctx := context.Background()
	var store storage.Storage
	if cfg.Storage.Backend == "gcs" {
		store, err = storage.NewGCSClient(ctx, cfg.GCS.BucketName, cfg.GCS.ProjectID, cfg.GCS.CredentialsPath)
	} else {
		store, err = storage.NewLocalStorage(cfg.Storage.Root)
	}
	if err != nil {
		zapLogger.Fatal("failed to initialize storage", zap.Error(err))
	}
	defer store.Close()

	templateService := services.NewTemplateService(db, store, zapLogger)
	for _, tmpl := range builtins {
		content, err := processor.NewDocx(tmpl.paragraphs)
		if err != nil {
			zapLogger.Fatal("failed to build template", zap.String("name", tmpl.name), zap.Error(err))
		}

		_, err = templateService.UploadTemplate(ctx, services.UploadTemplateInput{
			Name:        tmpl.name,
			Description: tmpl.description,
			Filename:    tmpl.name + ".docx",
			Content:     bytes.NewReader(content),
		})
		switch {
		case errors.Is(err, services.ErrTemplateExists):
			zapLogger.Info("template already registered", zap.String("name", tmpl.name))
		case err != nil:
			zapLogger.Fatal("failed to register template", zap.String("name", tmpl.name), zap.Error(err))
		}
	}
}

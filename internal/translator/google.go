package translator

import (
	"context"
	"fmt"
	"time"

	translate "cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/option"

	"github.com/valpere/batchtran/internal"
)

// GoogleService translates batches through the Google Cloud Translation API.
// The whole batch goes out as one request — the API accepts a slice of
// texts — and results are zipped back to segments by index, so no prompt or
// reply parsing is involved. Glossary and context hints do not apply here.
type GoogleService struct{}

func NewGoogleService() *GoogleService {
	return &GoogleService{}
}

func (s *GoogleService) Name() string {
	return "google"
}

func (s *GoogleService) TranslateBatch(ctx context.Context, cfg ServiceConfig, req BatchRequest) (*BatchResult, error) {
	result := &BatchResult{ServiceName: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	targetLangTag, err := language.Parse(req.TargetLang)
	if err != nil {
		result.Error = fmt.Sprintf("invalid target language: %v", err)
		return result, fmt.Errorf("invalid target language: %v", err)
	}

	var sourceLangTag language.Tag
	haveSource := req.SourceLang != "" && req.SourceLang != "auto"
	if haveSource {
		sourceLangTag, err = language.Parse(req.SourceLang)
		if err != nil {
			result.Error = fmt.Sprintf("invalid source language: %v", err)
			return result, fmt.Errorf("invalid source language: %v", err)
		}
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	opts := []option.ClientOption{}
	if cfg.Credentials != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Credentials))
	}

	client, err := translate.NewClient(ctx, opts...)
	if err != nil {
		result.Error = fmt.Sprintf("failed to create client: %v", err)
		return result, fmt.Errorf("failed to create client: %v", err)
	}
	defer client.Close()

	texts := make([]string, 0, len(req.Segments))
	for _, seg := range req.Segments {
		texts = append(texts, seg.Source)
	}

	var translations []translate.Translation
	if haveSource {
		translations, err = client.Translate(ctx, texts, targetLangTag, &translate.Options{
			Source: sourceLangTag,
		})
	} else {
		translations, err = client.Translate(ctx, texts, targetLangTag, nil)
	}
	if err != nil {
		result.Error = fmt.Sprintf("translation failed: %v", err)
		return result, fmt.Errorf("translation failed: %v", err)
	}
	if len(translations) != len(req.Segments) {
		result.Error = fmt.Sprintf("expected %d translations, got %d", len(req.Segments), len(translations))
		return result, fmt.Errorf("expected %d translations, got %d", len(req.Segments), len(translations))
	}

	result.Translations = make([]internal.Translation, 0, len(req.Segments))
	for i, seg := range req.Segments {
		result.Translations = append(result.Translations,
			internal.NewTranslation(seg.ID, seg.Source, translations[i].Text))
	}
	return result, nil
}

func (s *GoogleService) IsAvailable(ctx context.Context) error {
	return nil
}

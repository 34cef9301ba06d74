package gcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/yungbote/lingua-backend/internal/platform/ctxutil"
	"github.com/yungbote/lingua-backend/internal/platform/logger"
)

// Vision runs document text detection on photographed pages.
type Vision interface {
	OCRImageBytes(ctx context.Context, img []byte, languageHints []string) (*VisionOCRResult, error)
	Close() error
}

type VisionOCRResult struct {
	Provider   string   `json:"provider"`
	Text       string   `json:"text"`
	Confidence float64  `json:"confidence"`
	Languages  []string `json:"languages,omitempty"`
}

type visionService struct {
	log          *logger.Logger
	visionClient *vision.ImageAnnotatorClient
	timeout      time.Duration
}

func NewVision(log *logger.Logger) (Vision, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	vClient, err := vision.NewImageAnnotatorClient(context.Background(), ClientOptionsFromEnv()...)
	if err != nil {
		return nil, fmt.Errorf("vision client: %w", err)
	}
	return &visionService{
		log:          log.With("service", "gcp.Vision"),
		visionClient: vClient,
		timeout:      60 * time.Second,
	}, nil
}

func (s *visionService) Close() error {
	if s == nil || s.visionClient == nil {
		return nil
	}
	return s.visionClient.Close()
}

func (s *visionService) OCRImageBytes(ctx context.Context, img []byte, languageHints []string) (*VisionOCRResult, error) {
	if len(img) == 0 {
		return &VisionOCRResult{Provider: "gcp_vision"}, nil
	}
	ctx, cancel := context.WithTimeout(ctxutil.Default(ctx), s.timeout)
	defer cancel()

	req := &visionpb.AnnotateImageRequest{
		Image:    &visionpb.Image{Content: img},
		Features: []*visionpb.Feature{{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION}},
	}
	if len(languageHints) > 0 {
		req.ImageContext = &visionpb.ImageContext{LanguageHints: languageHints}
	}
	resp, err := s.visionClient.BatchAnnotateImages(ctx, &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{req},
	})
	if err != nil {
		return nil, classifyVisionError(err)
	}
	if resp == nil || len(resp.Responses) == 0 || resp.Responses[0] == nil {
		return &VisionOCRResult{Provider: "gcp_vision"}, nil
	}
	r0 := resp.Responses[0]
	if r0.Error != nil && r0.Error.Message != "" {
		return nil, fmt.Errorf("vision annotate error: %s", r0.Error.Message)
	}
	fta := r0.FullTextAnnotation
	if fta == nil {
		return &VisionOCRResult{Provider: "gcp_vision"}, nil
	}

	out := &VisionOCRResult{Provider: "gcp_vision", Text: strings.TrimSpace(fta.Text)}
	var confSum float64
	var confN int
	seenLang := map[string]bool{}
	for _, p := range fta.Pages {
		if p == nil {
			continue
		}
		confSum += float64(p.Confidence)
		confN++
		if p.Property == nil {
			continue
		}
		for _, dl := range p.Property.DetectedLanguages {
			if dl == nil || dl.LanguageCode == "" || seenLang[dl.LanguageCode] {
				continue
			}
			seenLang[dl.LanguageCode] = true
			out.Languages = append(out.Languages, dl.LanguageCode)
		}
	}
	if confN > 0 {
		out.Confidence = confSum / float64(confN)
	}
	return out, nil
}

// VisionError keeps the gRPC code so callers can tell quota problems from
// bad input.
type VisionError struct {
	Code codes.Code
	Err  error
}

func (e *VisionError) Error() string { return fmt.Sprintf("vision %s: %v", e.Code, e.Err) }
func (e *VisionError) Unwrap() error { return e.Err }

// Temporary reports whether retrying later could succeed.
func (e *VisionError) Temporary() bool {
	switch e.Code {
	case codes.Unavailable, codes.ResourceExhausted, codes.DeadlineExceeded, codes.Aborted:
		return true
	}
	return false
}

func classifyVisionError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("vision BatchAnnotateImages: %w", err)
	}
	return &VisionError{Code: st.Code(), Err: err}
}

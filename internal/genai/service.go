package genai

import (
	"context"
	"fmt"

	"github.com/candlr-app/candlr/internal/imagecodec"
	"github.com/candlr-app/candlr/internal/imagelog"
	"github.com/candlr-app/candlr/internal/monitoring"
)

// ImageResult is an image operation's outcome plus the metadata the UI
// shows while processing.
type ImageResult struct {
	ImageBase64 string
	PromptUsed  string
	ModelUsed   string
}

// PromptTemplate describes one operation's directive for the template
// catalog endpoint.
type PromptTemplate struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model"`
}

// Service runs the image operations, falling back to local processing
// where an operation permits degraded output. Safe for concurrent use.
type Service struct {
	transformer Transformer
	images      *imagelog.Logger
}

// NewService wires a transformer and an optional image logger (nil
// disables diagnostic captures).
func NewService(t Transformer, images *imagelog.Logger) *Service {
	return &Service{transformer: t, images: images}
}

// ExtractSubject isolates and enhances the main subject of an image. When
// the model is unavailable the original image passes through unchanged;
// extraction is an enhancement, not a requirement.
func (s *Service) ExtractSubject(ctx context.Context, imageB64 string) (ImageResult, error) {
	src, err := imagecodec.DecodeBase64Image(imageB64)
	if err != nil {
		return ImageResult{}, err
	}
	session := s.images.StartSession()
	session.Save(1, "original", src)

	png, err := imagecodec.EncodePNG(src)
	if err != nil {
		return ImageResult{}, err
	}

	out, err := s.transformer.Transform(ctx, extractSubjectPrompt, png)
	if err != nil {
		monitoring.Logf("genai: subject extraction failed, returning original: %v", err)
		b64, encErr := imagecodec.EncodeBase64PNG(src)
		if encErr != nil {
			return ImageResult{}, encErr
		}
		session.Save(2, "extracted_fallback", src)
		return ImageResult{
			ImageBase64: b64,
			PromptUsed:  "[FALLBACK - original image returned]\n\n" + extractSubjectPrompt,
			ModelUsed:   s.transformer.Model() + " (fallback to original)",
		}, nil
	}

	img, err := imagecodec.DecodeImage(out)
	if err != nil {
		return ImageResult{}, err
	}
	session.Save(2, "extracted", img)
	b64, err := imagecodec.EncodeBase64PNG(img)
	if err != nil {
		return ImageResult{}, err
	}
	return ImageResult{ImageBase64: b64, PromptUsed: extractSubjectPrompt, ModelUsed: s.transformer.Model()}, nil
}

// GenerateImage creates a mold-ready subject image from a text prompt.
// There is no local fallback for synthesis: without the model this fails.
func (s *Service) GenerateImage(ctx context.Context, userPrompt string) (ImageResult, error) {
	prompt := fmt.Sprintf(generateImagePrompt, userPrompt)
	out, err := s.transformer.Transform(ctx, prompt, nil)
	if err != nil {
		return ImageResult{}, fmt.Errorf("generate image: %w", err)
	}
	img, err := imagecodec.DecodeImage(out)
	if err != nil {
		return ImageResult{}, err
	}
	s.images.StartSession().Save(1, "generated", img)
	b64, err := imagecodec.EncodeBase64PNG(img)
	if err != nil {
		return ImageResult{}, err
	}
	return ImageResult{ImageBase64: b64, PromptUsed: prompt, ModelUsed: s.transformer.Model()}, nil
}

// CreateDepthMap turns an image into a grayscale depth map. Model failures
// recover through the local luminance estimator; the request proceeds with
// a usable, lower-quality map.
func (s *Service) CreateDepthMap(ctx context.Context, imageB64 string) (ImageResult, error) {
	src, err := imagecodec.DecodeBase64Image(imageB64)
	if err != nil {
		return ImageResult{}, err
	}
	session := s.images.StartSession()

	png, err := imagecodec.EncodePNG(src)
	if err != nil {
		return ImageResult{}, err
	}

	out, err := s.transformer.Transform(ctx, depthMapPrompt, png)
	if err == nil {
		img, decErr := imagecodec.DecodeImage(out)
		if decErr == nil {
			depth := imagecodec.ToGray(img)
			session.Save(1, "depth_map", depth)
			b64, encErr := imagecodec.EncodeBase64PNG(depth)
			if encErr != nil {
				return ImageResult{}, encErr
			}
			return ImageResult{ImageBase64: b64, PromptUsed: depthMapPrompt, ModelUsed: s.transformer.Model()}, nil
		}
		err = decErr
	}

	monitoring.Logf("genai: depth map failed, using luminance fallback: %v", err)
	depth, err := EstimateDepthMap(src)
	if err != nil {
		return ImageResult{}, err
	}
	session.Save(1, "depth_map_fallback", depth)
	b64, err := imagecodec.EncodeBase64PNG(depth)
	if err != nil {
		return ImageResult{}, err
	}
	return ImageResult{
		ImageBase64: b64,
		PromptUsed:  "[FALLBACK - luminance-based depth map]\n\nOriginal prompt:\n" + depthMapPrompt,
		ModelUsed:   "local processing (grayscale + gaussian smoothing + upscale)",
	}, nil
}

// PromptTemplates returns every directive template keyed by operation, for
// display in the UI during processing.
func (s *Service) PromptTemplates() map[string]PromptTemplate {
	model := s.transformer.Model()
	return map[string]PromptTemplate{
		"extract_subject":  {Prompt: extractSubjectPrompt, Model: model},
		"generate_image":   {Prompt: fmt.Sprintf(generateImagePrompt, "{user_prompt}"), Model: model},
		"create_depth_map": {Prompt: depthMapPrompt, Model: model},
		"generate_mold": {
			Prompt: "Converting depth map to 3D mesh geometry (local processing)",
			Model:  "candlr-mesh",
		},
	}
}

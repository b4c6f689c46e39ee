package genai

// Directive templates sent to the image model. The exact wording matters for
// output quality; edits should be verified against real generations.

const extractSubjectPrompt = `Extract and enhance the main subject from this image for use as a candle mold design.

CRITICAL REQUIREMENTS:
1. OUTPUT RESOLUTION: Generate a HIGH RESOLUTION image (4K). This is essential.
2. SUBJECT ISOLATION: Cleanly extract the primary subject/object with crisp, well-defined edges
3. BACKGROUND: Use a pure white or transparent background
4. ENHANCEMENT:
   - Enhance surface details and textures
   - Ensure smooth, clean edges suitable for mold making
   - Add subtle depth cues through shading
5. OPTIMIZATION FOR MOLDS:
   - Simplify overly complex or thin details that won't translate to a physical mold
   - Ensure the subject has good 3D depth variation
   - Smooth out noise or artifacts
   - Ideally with an orthogonal view rather than perspective

Output a clean, high-resolution, high-contrast image of the extracted subject.`

const generateImagePrompt = `Create a HIGH RESOLUTION (4K) image of the following subject, optimized for creating a decorative candle mold:

Subject: %s

CRITICAL REQUIREMENTS:
1. IMAGE QUALITY: crisp details, no noise or artifacts, high contrast.
2. COMPOSITION: centered subject, pure white background, orthogonal view
   with flat even illumination and no shadows.
3. SUBJECT OPTIMIZATION: smooth surfaces that release cleanly from silicone,
   simplified thin details, clear foreground/background separation, crisp
   edges.
4. WHAT TO AVOID: do not generate an image of a mold - generate the subject
   itself; no perspective distortion; no busy backgrounds.

The image will be used to derive a depth map for 3D mold generation.`

const depthMapPrompt = `Generate a PROFESSIONAL QUALITY depth map from this image for 3D relief/mold creation.

CRITICAL REQUIREMENTS:
1. OUTPUT: High resolution grayscale depth map (4K)
2. DEPTH ENCODING:
   - Pure WHITE (255) = closest/highest points (front of relief, protruding areas)
   - Pure BLACK (0) = furthest/lowest points (back/base of the mold)
   - Smooth, continuous gradients between depth levels
3. QUALITY: no noise, no compression artifacts, no banding; sharp edges
   where the subject meets the background.
4. DEPTH INTERPRETATION: front-facing surfaces brightest, recessed areas and
   background darkest, fine surface detail preserved as subtle gradients.
5. BACKGROUND: pure black (the base/back of the mold).

Output ONLY a clean, high-resolution, noise-free grayscale depth map image.`

package gateway

// Client-facing messages.
const (
	msgMethodNotAllowed = "Method not allowed"
	msgInvalidJSON      = "Invalid JSON in request body"
	msgPromptRequired   = "Prompt is required and must be a non-empty string"
	msgInternal         = "Internal server error"

	msgOpenAIKeyMissing = "OpenAI API key not configured"
	msgInvalidType      = "Invalid type. Must be one of: chat, completion, analysis, generation"
	msgMaxTokens        = "maxTokens must be a number between 1 and 4000"
	msgTemperature      = "temperature must be a number between 0 and 2"
	msgModel            = "model must be a string"
	msgOpenAIConnect    = "Failed to connect to OpenAI API"
	msgOpenAIFailed     = "OpenAI API request failed"
	msgOpenAIParse      = "Failed to parse OpenAI API response"
	msgOpenAIEmpty      = "No content generated by OpenAI API"

	msgClipdropKeyMissing = "CLIPDROP API key not configured"
	msgPromptTooLong      = "Prompt must be less than 1000 characters"
	msgImageFailed        = "Image generation failed"
	msgImageConnect       = "Failed to connect to image provider"
	msgImageEmpty         = "No image generated"
	msgImageStore         = "Failed to store generated image"

	msgURLRequired  = "URL is required and must be a non-empty string"
	msgMimeType     = "mimeType must be a string"
	msgURLRejected  = "URL is not allowed"
	msgStreamFailed = "Failed to stream file"
	msgTooLarge     = "File exceeds size limit"
	msgFileStore    = "Failed to store file"
)

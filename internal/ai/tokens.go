package ai

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const fallbackEncoding = "cl100k_base"

var (
	encodingsMu sync.Mutex
	encodings   = make(map[string]*tiktoken.Tiktoken)
)

// EstimateTokens counts the tokens of text with the tokenizer of model,
// falling back to cl100k_base and finally to four characters per token when
// no tokenizer can be loaded.
func EstimateTokens(model, text string) int {
	if text == "" {
		return 0
	}
	if enc := encodingFor(model); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return (len([]rune(text)) + 3) / 4
}

func encodingFor(model string) *tiktoken.Tiktoken {
	encodingsMu.Lock()
	defer encodingsMu.Unlock()

	if enc, ok := encodings[model]; ok {
		return enc
	}
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(fallbackEncoding)
	}
	if err != nil {
		enc = nil
	}
	// Failed lookups are cached as nil.
	encodings[model] = enc
	return enc
}

// estimateUsage fills usage from the prompt and completion text.
func estimateUsage(model, systemPrompt, userInput, completion string) UsageInfo {
	prompt := EstimateTokens(model, systemPrompt) + EstimateTokens(model, userInput)
	completionTokens := EstimateTokens(model, completion)
	return UsageInfo{
		PromptTokens:     prompt,
		CompletionTokens: completionTokens,
		TotalTokens:      prompt + completionTokens,
		Estimated:        true,
	}
}

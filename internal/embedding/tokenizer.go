package embedding

import "strings"

// BERT special token IDs used by SimpleTokenizer.
const (
	clsTokenID = 101
	sepTokenID = 102
)

// Tokenizer produces token IDs for BERT-style models (input_ids, attention_mask, token_type_ids),
// padded to maxTokens.
type Tokenizer interface {
	Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64)
}

// SimpleTokenizer is a word-split tokenizer with hash-based token IDs. It is only a fallback
// when no vocabulary is configured; similarity quality is poor.
type SimpleTokenizer struct{}

// Tokenize splits text into words and produces padded token IDs up to maxTokens.
func (t *SimpleTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	if maxTokens <= 0 {
		maxTokens = 256
	}
	ids := make([]int64, 0, len(text)/4)
	for _, word := range strings.Fields(text) {
		ids = append(ids, int64(HashString(word)%30000))
	}
	return frame(ids, maxTokens, clsTokenID, sepTokenID, 0)
}

// frame wraps ids in [CLS] ... [SEP], truncating and padding to maxTokens.
func frame(ids []int64, maxTokens int, cls, sep, pad int64) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	inputIDs = make([]int64, maxTokens)
	attentionMask = make([]int64, maxTokens)
	tokenTypeIDs = make([]int64, maxTokens)
	for i := range inputIDs {
		inputIDs[i] = pad
	}
	if maxTokens < 2 {
		inputIDs[0] = cls
		attentionMask[0] = 1
		return inputIDs, attentionMask, tokenTypeIDs
	}
	if len(ids) > maxTokens-2 {
		ids = ids[:maxTokens-2]
	}
	inputIDs[0] = cls
	attentionMask[0] = 1
	pos := 1
	for _, id := range ids {
		inputIDs[pos] = id
		attentionMask[pos] = 1
		pos++
	}
	inputIDs[pos] = sep
	attentionMask[pos] = 1
	return inputIDs, attentionMask, tokenTypeIDs
}

// HashString returns a deterministic non-negative hash for use as a simple token ID.
func HashString(s string) int {
	h := 0
	for _, c := range s {
		h = 31*h + int(c)
	}
	if h < 0 {
		h = -h
	}
	if h < 0 { // math.MinInt
		h = 0
	}
	return h
}

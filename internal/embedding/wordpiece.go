package embedding

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	clsToken = "[CLS]"
	sepToken = "[SEP]"
	padToken = "[PAD]"
	unkToken = "[UNK]"

	maxWordChars = 100
)

// WordPieceTokenizer is an uncased BERT tokenizer driven by a vocab.txt file
// (one token per line, line number is the ID), as shipped with all-MiniLM-L6-v2.
type WordPieceTokenizer struct {
	vocab map[string]int64
	cls   int64
	sep   int64
	pad   int64
	unk   int64
}

// LoadWordPieceTokenizer reads a vocab.txt file.
func LoadWordPieceTokenizer(path string) (*WordPieceTokenizer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocab: %w", err)
	}
	defer f.Close()

	var tokens []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		tokens = append(tokens, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read vocab: %w", err)
	}
	return NewWordPieceTokenizer(tokens)
}

// NewWordPieceTokenizer builds a tokenizer from an ordered token list.
// [CLS], [SEP] and [UNK] are required; [PAD] defaults to ID 0.
func NewWordPieceTokenizer(tokens []string) (*WordPieceTokenizer, error) {
	vocab := make(map[string]int64, len(tokens))
	for i, tok := range tokens {
		if _, dup := vocab[tok]; !dup {
			vocab[tok] = int64(i)
		}
	}
	t := &WordPieceTokenizer{vocab: vocab}
	for _, special := range []struct {
		name string
		dst  *int64
	}{{clsToken, &t.cls}, {sepToken, &t.sep}, {unkToken, &t.unk}} {
		id, ok := vocab[special.name]
		if !ok {
			return nil, fmt.Errorf("vocab missing %s", special.name)
		}
		*special.dst = id
	}
	if id, ok := vocab[padToken]; ok {
		t.pad = id
	}
	return t, nil
}

// Tokenize produces padded BERT inputs for text, truncated to maxTokens.
func (t *WordPieceTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	if maxTokens <= 0 {
		maxTokens = 256
	}
	pieces := t.Pieces(text)
	ids := make([]int64, len(pieces))
	for i, p := range pieces {
		if id, ok := t.vocab[p]; ok {
			ids[i] = id
		} else {
			ids[i] = t.unk
		}
	}
	return frame(ids, maxTokens, t.cls, t.sep, t.pad)
}

// Pieces returns the word pieces of text, without special tokens.
func (t *WordPieceTokenizer) Pieces(text string) []string {
	var pieces []string
	for _, word := range basicTokenize(text) {
		pieces = append(pieces, t.wordPieces(word)...)
	}
	return pieces
}

// wordPieces applies greedy longest-match-first segmentation to a single word.
func (t *WordPieceTokenizer) wordPieces(word string) []string {
	runes := []rune(word)
	if len(runes) > maxWordChars {
		return []string{unkToken}
	}
	var pieces []string
	for start := 0; start < len(runes); {
		end := len(runes)
		match := ""
		for ; end > start; end-- {
			sub := string(runes[start:end])
			if start > 0 {
				sub = "##" + sub
			}
			if _, ok := t.vocab[sub]; ok {
				match = sub
				break
			}
		}
		if match == "" {
			return []string{unkToken}
		}
		pieces = append(pieces, match)
		start = end
	}
	return pieces
}

// basicTokenize lowercases, strips accents, and splits on whitespace, punctuation and CJK characters.
func basicTokenize(text string) []string {
	text = norm.NFD.String(strings.ToLower(text))
	var (
		tokens []string
		cur    strings.Builder
	)
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for _, r := range text {
		switch {
		case r == 0 || r == unicode.ReplacementChar:
			continue
		case unicode.IsSpace(r):
			flush()
		case unicode.IsControl(r), unicode.Is(unicode.Mn, r):
			continue
		case isPunctuation(r) || isCJK(r):
			flush()
			tokens = append(tokens, string(r))
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return tokens
}

// isPunctuation treats all non-alphanumeric ASCII as punctuation, like BERT.
func isPunctuation(r rune) bool {
	if (r >= 33 && r <= 47) || (r >= 58 && r <= 64) || (r >= 91 && r <= 96) || (r >= 123 && r <= 126) {
		return true
	}
	return unicode.IsPunct(r)
}

func isCJK(r rune) bool {
	return (r >= 0x4E00 && r <= 0x9FFF) ||
		(r >= 0x3400 && r <= 0x4DBF) ||
		(r >= 0x20000 && r <= 0x2A6DF) ||
		(r >= 0x2A700 && r <= 0x2B73F) ||
		(r >= 0x2B740 && r <= 0x2B81F) ||
		(r >= 0x2B820 && r <= 0x2CEAF) ||
		(r >= 0xF900 && r <= 0xFAFF) ||
		(r >= 0x2F800 && r <= 0x2FA1F)
}

package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"market-mood/internal/domain"
)

const analystInstructions = `You are a top financial assistant specialized in analyzing financial news regarding the US stock market.
Your task is to read the provided list of news articles (in JSON format) and provide a concise summary covering the overall market sentiment (positive, negative, neutral, mixed), key events or announcements, and any recurring themes or major concerns mentioned across the articles.
Base your analysis only on the information presented in the articles.
IMPORTANT: Do NOT include your thought process or reasoning steps within the main response body.
Conclude your entire response with a single final line containing ONLY the estimated Fear and Greed value in the following exact format (using capital letters):
FEAR AND GREED INDEX = [estimated F&G value]`

// BuildSystemPrompt returns the analyst instructions, with the current
// volatility reading appended when one is known.
func BuildSystemPrompt(vix *domain.VIXReading) string {
	var sb strings.Builder
	sb.WriteString(analystInstructions)
	if vix != nil {
		sb.WriteString("\n\nFor context, the CBOE Volatility Index (VIX) last closed at ")
		sb.WriteString(fmt.Sprintf("%.2f", vix.Value))
		sb.WriteString(" (")
		sb.WriteString(vix.TimestampUTC)
		sb.WriteString(").")
	}
	return sb.String()
}

// BuildUserPrompt embeds the articles as indented JSON.
func BuildUserPrompt(articles []domain.Article) (string, error) {
	payload, err := json.MarshalIndent(articles, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode articles: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("You are top financial analyst, please analyze the following news articles and provide the summary and the Fear & Greed index value as instructed.\n\n")
	sb.WriteString("News Articles:\n")
	sb.Write(payload)
	sb.WriteString("\n\nAnalysis Summary and Index Value:\n")
	return sb.String(), nil
}

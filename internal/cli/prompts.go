package cli

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/AlecAivazis/survey/v2"

	"stock-dashboard/internal/models"
)

// Dashboard actions offered after a symbol is loaded.
const (
	actionAsk     = "Ask a question"
	actionSymbol  = "Change symbol"
	actionMarket  = "Change market"
	actionDays    = "Change lookback"
	actionRefresh = "Show dashboard again"
	actionQuit    = "Quit"
)

var symbolPattern = regexp.MustCompile(`^[A-Z0-9.\-^=]+$`)

// validateSymbol checks ticker input before it reaches the controller.
func validateSymbol(val interface{}) error {
	str, ok := val.(string)
	if !ok {
		return fmt.Errorf("invalid input type")
	}
	str = strings.TrimSpace(strings.ToUpper(str))
	if len(str) == 0 {
		return fmt.Errorf("symbol cannot be empty")
	}
	if len(str) > 15 {
		return fmt.Errorf("symbol too long (max 15 characters)")
	}
	if !symbolPattern.MatchString(str) {
		return fmt.Errorf("invalid symbol format (use letters, digits, dots and hyphens only)")
	}
	return nil
}

// PromptForSymbol prompts for a ticker symbol.
func PromptForSymbol(current string, market models.Market) (string, error) {
	example := "AAPL, MSFT, TSLA"
	if market == models.MarketDomestic {
		example = "600519, 000001"
	}

	var symbol string
	prompt := &survey.Input{
		Message: fmt.Sprintf("Enter a stock symbol (e.g., %s):", example),
		Help:    "Domestic 6-digit codes starting with 6 are Shanghai listings, others Shenzhen.",
		Default: current,
	}
	if err := survey.AskOne(prompt, &symbol, survey.WithValidator(validateSymbol)); err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.ToUpper(symbol)), nil
}

// PromptForMarket prompts for the market selector.
func PromptForMarket(current models.Market) (models.Market, error) {
	options := []string{models.MarketForeign.Label(), models.MarketDomestic.Label()}

	var selected string
	prompt := &survey.Select{
		Message: "Select market:",
		Options: options,
		Default: current.Label(),
	}
	if err := survey.AskOne(prompt, &selected); err != nil {
		return "", err
	}
	return models.ParseMarket(selected)
}

// PromptForLookback prompts for the lookback window.
func PromptForLookback(current int) (int, error) {
	options := make([]string, len(models.Lookbacks))
	for i, d := range models.Lookbacks {
		options[i] = lookbackOption(d)
	}

	var selected string
	prompt := &survey.Select{
		Message: "Select lookback:",
		Options: options,
		Default: lookbackOption(current),
	}
	if err := survey.AskOne(prompt, &selected); err != nil {
		return 0, err
	}
	return parseLookbackOption(selected)
}

// PromptForQuestion prompts for a custom question. Blank input is returned
// as-is so the controller can show its warning.
func PromptForQuestion() (string, error) {
	var question string
	prompt := &survey.Input{
		Message: "Your question:",
		Help:    "The latest price, indicators and fundamentals are sent along with the question.",
	}
	if err := survey.AskOne(prompt, &question); err != nil {
		return "", err
	}
	return question, nil
}

// PromptForAction prompts for the next dashboard action.
func PromptForAction() (string, error) {
	var action string
	prompt := &survey.Select{
		Message: "What next?",
		Options: []string{actionAsk, actionSymbol, actionMarket, actionDays, actionRefresh, actionQuit},
		Default: actionAsk,
	}
	if err := survey.AskOne(prompt, &action); err != nil {
		return "", err
	}
	return action, nil
}

func lookbackOption(days int) string {
	return fmt.Sprintf("%d days", days)
}

func parseLookbackOption(option string) (int, error) {
	var days int
	if _, err := fmt.Sscanf(option, "%d days", &days); err != nil || !models.ValidLookback(days) {
		return 0, fmt.Errorf("invalid lookback %q", option)
	}
	return days, nil
}

package appraisal

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lithammer/dedent"

	"github.com/Toverson/Thrifter-s-Eye/internal/scan"
)

const appraisalPrompt = `
	# CONTEXT
	You are "Thrifter's Eye," an expert AI appraiser specializing in items found at thrift stores, garage sales, and flea markets. You are analytical, realistic, and your goal is to help a user understand what they've found and what it might be worth in the %[1]s market (prices in %[2]s).

	# TASK
	I will provide you with JSON data containing information about an object I scanned. Your task is to analyze this data and return a structured JSON object with your appraisal. You MUST strictly adhere to the requested JSON output format.

	# INPUT DATA
	Here is the data I have gathered:

	## 1. Image Recognition Analysis:
	%[3]s

	## 2. Similar Listings Found on Marketplaces in %[1]s:
	%[4]s

	# YOUR ANALYSIS & APPRAISAL
	Based on ALL the data above, perform the following actions:
	1. Synthesize the recognition data and search results to determine the most likely identity of the item.
	2. Analyze the prices of the similar listings, ignoring outliers, to establish a realistic resale value range in %[2]s.
	3. Write a brief, helpful analysis for the user.
	4. Generate a draft title and description for a marketplace listing.
	5. Provide a confidence score from 0-100 representing your certainty in the valuation.

	# REQUIRED OUTPUT FORMAT
	Your entire response must be a single, valid JSON object. Do not include any text or markdown before or after the JSON object.

	{
	  "itemName": "A concise and accurate name for the item.",
	  "estimatedValue": "A string representing the value range in %[2]s, e.g., '%[5]s25 - %[5]s40 %[2]s'.",
	  "confidenceScore": 75,
	  "aiAnalysis": "A paragraph explaining what the item is, its potential significance or history, and the reasoning behind your valuation. Be realistic about condition and market demand.",
	  "listingDraft": {
	    "title": "A compelling, keyword-rich title for an online marketplace listing.",
	    "description": "A detailed description for the listing, including potential keywords from your analysis."
	  }
	}
`

// BuildPrompt renders the appraisal instruction for one scan.
func BuildPrompt(vision scan.VisionResult, search scan.SearchResult, countryCode, currencyCode string) (string, error) {
	visionJSON, err := json.MarshalIndent(vision, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode vision payload: %w", err)
	}
	searchJSON, err := json.MarshalIndent(search, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode search payload: %w", err)
	}

	return fmt.Sprintf(strings.TrimSpace(dedent.Dedent(appraisalPrompt)),
		countryCode,
		currencyCode,
		visionJSON,
		searchJSON,
		CurrencySymbol(currencyCode),
	), nil
}

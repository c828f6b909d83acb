package ailink

import "strings"

// Prompt templates for the judge calls. Variables use {{name}} placeholders
// and {{#if var}}...{{else}}...{{/if}} conditionals.

const accuracySystemTemplate = `You are a brand accuracy auditor. You receive an AI-generated answer about a market category and must judge how accurately it describes the brand "{{brand}}".
{{#if ground_truth}}Use the following crawled website content as the authoritative reference for what the brand actually offers:

{{ground_truth}}
{{else}}No crawled reference content is available; judge against the brand description only.{{/if}}
Respond with JSON only: {"accuracy": "accurate"|"vague"|"none", "misattribution_risk": true|false, "details": "<one sentence>"}.
Set misattribution_risk true only when the answer asserts offerings or claims the reference content does not support.`

const accuracyUserTemplate = `Brand: {{brand}}
{{#if brand_description}}Brand description: {{brand_description}}
{{/if}}Answer to audit:

{{answer}}`

const sentimentSystemTemplate = `You analyze how favorably a brand is portrayed inside an AI-generated answer. A keyword-based pre-pass produced a preliminary verdict you may refine: {{hint}}.
Respond with JSON only: {"polarity": <-1..1>, "confidence": <0..1>, "label": "positive"|"neutral"|"negative", "key_phrases": [..], "concerns": [..], "praises": [..]}.
Polarity reflects the brand's portrayal, not the overall answer tone. Unfavorable comparisons against the brand must lower polarity.`

const sentimentUserTemplate = `Brand: {{brand}}

Answer:

{{answer}}`

const gapSystemTemplate = `You are an answer-engine-optimization analyst. Given an AI answer for the query "{{keyword}}" and the sources it cited, rate the brand "{{brand}}" on five dimensions from 1 (weak) to 5 (strong) and propose remediation actions.
Respond with JSON only: {"gap_analysis": {"content_depth": n, "authority": n, "freshness": n, "structured_data": n, "comparative_presence": n}, "action_items": [{"priority": "foundational"|"high"|"medium"|"nice-to-have", "category": "...", "action": "..."}], "recommendation": "<two sentences>"}.
Ground every action in the answer and sources given; never invent facts about the brand.`

const gapUserTemplate = `Brand: {{brand}} ({{brand_domain}})
Query: {{keyword}}
Cited sources:
{{sources}}

Answer:

{{answer}}`

func applyVars(template string, vars map[string]string) string {
	result := template
	for key, value := range vars {
		result = strings.ReplaceAll(result, "{{"+key+"}}", value)
	}
	return result
}

// applyConditionals handles {{#if var}}content{{else}}fallback{{/if}} blocks.
// A present, non-empty variable selects the content branch.
func applyConditionals(template string, vars map[string]string) string {
	result := template
	for {
		start := strings.Index(result, "{{#if")
		if start == -1 {
			break
		}
		tagEnd := strings.Index(result[start:], "}}")
		if tagEnd == -1 {
			break
		}
		tagEnd += start

		varName := strings.TrimSpace(result[start+len("{{#if") : tagEnd])
		blockStart := tagEnd + 2

		elseStart, elseEnd, endStart, endEnd := findConditionalBlock(result, blockStart)
		if endStart == -1 {
			break
		}

		ifContent := result[blockStart:endStart]
		elseContent := ""
		if elseStart != -1 {
			ifContent = result[blockStart:elseStart]
			elseContent = result[elseEnd:endStart]
		}

		value, exists := vars[varName]
		replacement := elseContent
		if exists && strings.TrimSpace(value) != "" {
			replacement = ifContent
		}

		result = result[:start] + replacement + result[endEnd:]
	}
	return result
}

func findConditionalBlock(input string, start int) (int, int, int, int) {
	depth := 0
	elseStart := -1
	elseEnd := -1

	pos := start
	for {
		openIdx := strings.Index(input[pos:], "{{")
		if openIdx == -1 {
			return -1, -1, -1, -1
		}
		openIdx += pos

		closeIdx := strings.Index(input[openIdx:], "}}")
		if closeIdx == -1 {
			return -1, -1, -1, -1
		}
		closeIdx += openIdx

		tag := strings.TrimSpace(input[openIdx+2 : closeIdx])
		switch {
		case tag == "#if" || strings.HasPrefix(tag, "#if "):
			depth++
		case tag == "/if":
			if depth == 0 {
				return elseStart, elseEnd, openIdx, closeIdx + 2
			}
			depth--
		case tag == "else" && depth == 0 && elseStart == -1:
			elseStart = openIdx
			elseEnd = closeIdx + 2
		}

		pos = closeIdx + 2
	}
}

func renderTemplate(system, user string, vars map[string]string) (string, string) {
	sys := applyConditionals(system, vars)
	sys = applyVars(sys, vars)
	usr := applyConditionals(user, vars)
	usr = applyVars(usr, vars)
	return sys, usr
}

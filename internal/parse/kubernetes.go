package parse

import "regexp"

var (
	// "[pod-name-abc123] ..."
	k8sBracketRE = regexp.MustCompile(`^\[([a-z0-9][\w.-]+)\]\s*`)
	// "pod-name container 2024-...": the trailing group anchors on the
	// year so arbitrary two-word lines are not mistaken for this format.
	k8sPrefixRE = regexp.MustCompile(`^([a-z0-9][\w.-]+)\s+[a-z0-9][\w.-]+\s+(\d{4}-)`)
)

// KubernetesParser handles kubectl log prefixes, both the bracketed pod
// style and the "pod container timestamp" multi-pod style.
type KubernetesParser struct{}

func (p *KubernetesParser) Name() string { return "kubernetes" }

func (p *KubernetesParser) TryParse(raw string) (Result, bool) {
	var component, remainder string

	if m := k8sBracketRE.FindStringSubmatch(raw); m != nil {
		component = m[1]
		remainder = raw[len(m[0]):]
	} else if loc := k8sPrefixRE.FindStringSubmatchIndex(raw); loc != nil {
		component = raw[loc[2]:loc[3]]
		remainder = raw[loc[4]:]
	} else {
		return Result{}, false
	}

	iso := &ISOParser{}
	if res, ok := iso.TryParse(remainder); ok {
		res.Component = component
		return res, true
	}

	contentType, parsed := ClassifyContent(remainder)
	return Result{
		Content:     remainder,
		ContentType: contentType,
		JSON:        parsed,
		Level:       ExtractLevel(remainder, parsed),
		Component:   component,
	}, true
}

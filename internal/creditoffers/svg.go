package creditoffers

import (
	"encoding/base64"
	"fmt"
)

// generateCardSVG renders a simple gradient card design as an inline SVG
// data URL for the offer response.
func generateCardSVG(cardName, cardType string, colors colorScheme) string {
	svg := fmt.Sprintf(`<svg width="400" height="250" xmlns="http://www.w3.org/2000/svg">
  <defs>
    <linearGradient id="grad_%s" x1="0%%" y1="0%%" x2="100%%" y2="100%%">
      <stop offset="0%%" style="stop-color:%s;stop-opacity:1" />
      <stop offset="100%%" style="stop-color:%s;stop-opacity:1" />
    </linearGradient>
  </defs>
  <rect width="400" height="250" rx="15" fill="url(#grad_%s)"/>
  <text x="30" y="50" font-family="Arial, sans-serif" font-size="24" font-weight="bold" fill="white">%s</text>
  <text x="30" y="220" font-family="Arial, sans-serif" font-size="16" fill="white" opacity="0.9">%s</text>
  <circle cx="350" cy="40" r="25" fill="white" opacity="0.3"/>
  <circle cx="370" cy="40" r="25" fill="white" opacity="0.3"/>
</svg>`, cardType, colors.start, colors.end, cardType, cardName, cardType)

	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg))
}

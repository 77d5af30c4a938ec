// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the simplechat TUI.

All colors use Lip Gloss AdaptiveColor; the Theme decides which half of each
pair applies, either from the terminal background (termenv) or from the
configured ui.theme.

# Color System (colors.go)

  - Purple - Assistant messages and the header border
  - Cyan - Title and input prompt
  - Rose - Error replies
  - Amber - Rate-limit replies and notices

# Theme System (theme.go)

	theme := styles.NewTheme(cfg.UI.Theme)
	theme.SetSize(width, height)
	bubble := theme.UserBubble.MaxWidth(theme.BubbleWidth())
*/
package styles

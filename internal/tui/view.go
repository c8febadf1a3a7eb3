package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jask/croissant/internal/service"
)

func (a *App) View() string {
	var body string
	switch a.state {
	case viewFeed:
		body = a.renderFeed()
	default:
		body = a.renderFollowing()
	}
	if a.confirmReset {
		body += "\n\n" + modalStyle.Render("Clear the offline cache?\nFollowed users and cached posts will be removed.")
	}
	if a.toast != "" {
		style := toastStyle
		if a.toastErr {
			style = toastErrStyle
		}
		body += "\n\n" + style.Render(a.toast)
	}
	keys := a.keys.followingHelp()
	switch {
	case a.confirmReset:
		keys = a.keys.confirmHelp()
	case a.state == viewFeed:
		keys = a.keys.feedHelp()
	}
	return body + "\n\n" + a.help.View(keys)
}

func (a *App) renderFollowing() string {
	header := lipgloss.JoinHorizontal(lipgloss.Top,
		titleStyle.Render("Following"), "  ",
		countStyle.Render(fmt.Sprintf("Following %d", a.followingCount())),
	)
	if !a.loaded {
		return header + "\n\n" + subtleStyle.Render("Loading…")
	}

	var b strings.Builder
	b.WriteString(header)
	if a.filtering || a.filter != "" {
		line := "/" + a.filter
		if a.filtering {
			line += "█"
		}
		b.WriteString("\n" + subtleStyle.Render(line))
	}
	b.WriteString("\n\n")

	if a.emptyStateVisible() {
		b.WriteString(emptyStyle.Render("You are not following anyone yet.\n" +
			subtleStyle.Render("Press f to browse the cached feed.")))
		return b.String()
	}

	visible := a.visibleUsers()
	if len(visible) == 0 {
		b.WriteString(subtleStyle.Render("No matches for " + fmt.Sprintf("%q", a.filter)))
		return b.String()
	}
	for i, u := range visible {
		b.WriteString(a.renderUserRow(u, i == a.cursor))
		if i < len(visible)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (a *App) renderUserRow(u service.FollowUser, selected bool) string {
	marker := "  "
	if selected {
		marker = cursorStyle.Render("▶ ")
	}
	button := followStyle.Render("Follow")
	if u.Following {
		button = followingStyle.Render("Following")
	}
	line := marker + nameStyle.Render(displayName(u)) + "  " + button
	if u.Bio != "" {
		line += "\n    " + subtleStyle.Render(u.Bio)
	}
	return line
}

func (a *App) renderFeed() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Cached feed"))
	b.WriteString("  " + countStyle.Render(fmt.Sprintf("%d posts", len(a.posts))))
	b.WriteString("\n\n")
	if len(a.posts) == 0 {
		b.WriteString(subtleStyle.Render("No cached posts."))
		return b.String()
	}
	for i, p := range a.posts {
		marker := "  "
		if i == a.postCursor {
			marker = cursorStyle.Render("▶ ")
		}
		heart := fmt.Sprintf("♡ %d", p.LikeCount)
		if p.IsLiked {
			heart = likedStyle.Render(fmt.Sprintf("♥ %d", p.LikeCount))
		}
		author := "@" + p.Author.Nickname
		if a.authorFollowing[p.Author.UserID] {
			author += " ✓"
		}
		fmt.Fprintf(&b, "%s%s  %s  %s  %s", marker, nameStyle.Render(p.Title), subtleStyle.Render(author),
			subtleStyle.Render(p.CreateTime.Format(a.opts.DateFormat)), heart)
		if p.Content != "" {
			b.WriteString("\n    " + p.Content)
		}
		if i < len(a.posts)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

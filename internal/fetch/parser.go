package fetch

import (
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// hutPage is what the calendar HTML page yields: the hut name and the
// room label for each bed category number.
type hutPage struct {
	Name  string
	Rooms map[int]string
}

// roomIDPrefix marks the div elements carrying room information.
const roomIDPrefix = "room0-"

// parseHutPage extracts the hut name and room labels from the calendar
// page. The name is the first h4 element; each room sits in a div whose
// id starts with "room0-" followed by the bed category number, with the
// label in a child label element of class item-label.
func parseHutPage(r io.Reader) (*hutPage, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	page := &hutPage{Rooms: make(map[int]string)}
	walk(doc, page, -1)
	return page, nil
}

// walk descends the node tree carrying the bed category number of the
// enclosing room div, or -1 outside of one.
func walk(n *html.Node, page *hutPage, roomNo int) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "h4":
			if page.Name == "" {
				page.Name = strings.TrimSpace(textContent(n))
			}
		case "div":
			if id, ok := attr(n, "id"); ok && strings.HasPrefix(id, roomIDPrefix) {
				if no, err := strconv.Atoi(id[len(roomIDPrefix):]); err == nil {
					roomNo = no
				}
			}
		case "label":
			if class, ok := attr(n, "class"); ok && class == "item-label" && roomNo >= 0 {
				if _, seen := page.Rooms[roomNo]; !seen {
					page.Rooms[roomNo] = strings.TrimSpace(textContent(n))
				}
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, page, roomNo)
	}
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return sb.String()
}

package news

// Grouping partitions articles by publisher. Publishers are kept in order of
// first appearance and each publisher's articles in position order.
type Grouping struct {
	order  []string
	groups map[string][]Article
}

// GroupBySource partitions a by Source.
func GroupBySource(a Articles) Grouping {
	g := Grouping{groups: make(map[string][]Article)}
	for _, article := range a.items {
		if _, ok := g.groups[article.Source]; !ok {
			g.order = append(g.order, article.Source)
		}
		g.groups[article.Source] = append(g.groups[article.Source], article)
	}
	return g
}

// Publishers returns the publishers in order of first appearance.
func (g Grouping) Publishers() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Articles returns a copy of the publisher's articles.
func (g Grouping) Articles(publisher string) []Article {
	src := g.groups[publisher]
	out := make([]Article, len(src))
	copy(out, src)
	return out
}

// Len returns the number of publishers.
func (g Grouping) Len() int {
	return len(g.order)
}

package screen

import (
	"strings"

	"github.com/hitoshi/diarybook/internal/model"
)

// Kind は画面の種類。
type Kind string

// 画面の種類
const (
	KindAuth     Kind = "auth"
	KindList     Kind = "list"
	KindNew      Kind = "new"
	KindDetail   Kind = "detail"
	KindEdit     Kind = "edit"
	KindNotFound Kind = "not_found"
)

// Route はパスの解決結果。
type Route struct {
	Kind Kind
	ID   string
}

// Resolve はパスを画面へ解決する。
//
//	/                 一覧 (未ログイン時は認証画面)
//	/new              作成
//	/diary/:id        詳細
//	/diary/edit/:id   編集
//
// 一覧以外もログインが必要で、未ログインの場合は認証画面となる。
func Resolve(path string, identity *model.Identity) Route {
	route := match(path)
	if route.Kind != KindNotFound && identity == nil {
		return Route{Kind: KindAuth}
	}
	return route
}

func match(path string) Route {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	}

	switch {
	case path == "/":
		return Route{Kind: KindList}
	case path == "/new":
		return Route{Kind: KindNew}
	case path == "/diary/edit":
		// 編集はIDが必須。"edit" をIDとする詳細画面にはしない。
		return Route{Kind: KindNotFound}
	case strings.HasPrefix(path, "/diary/edit/"):
		if id := strings.TrimPrefix(path, "/diary/edit/"); validSegment(id) {
			return Route{Kind: KindEdit, ID: id}
		}
	case strings.HasPrefix(path, "/diary/"):
		if id := strings.TrimPrefix(path, "/diary/"); validSegment(id) {
			return Route{Kind: KindDetail, ID: id}
		}
	}
	return Route{Kind: KindNotFound}
}

func validSegment(s string) bool {
	return s != "" && !strings.Contains(s, "/")
}

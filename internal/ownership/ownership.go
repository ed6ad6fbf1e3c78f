// Package ownership は日記の変更可否の判定を提供する。
package ownership

import "github.com/hitoshi/diarybook/internal/model"

// CanModify はidentityがentryの所有者である場合にtrueを返す。
// どちらかがnilの場合は常にfalse。サーバー側でも同じ条件で再検証される。
func CanModify(identity *model.Identity, entry *model.Entry) bool {
	if identity == nil || entry == nil {
		return false
	}
	return identity.ID != "" && identity.ID == entry.OwnerID
}

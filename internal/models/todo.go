// Package modelsはTodo・ユーザー・書籍などのデータ構造を定義します。
package models

// Todo は所有者ごとに管理されるタスクです。
type Todo struct {
	ID          int    `json:"id" db:"id"`
	Title       string `json:"title" db:"title"`
	Description string `json:"description" db:"description"`
	Priority    int    `json:"priority" db:"priority"`
	Completed   bool   `json:"completed" db:"completed"`
	OwnerID     int    `json:"owner_id" db:"owner_id"` // 作成時のユーザーIDから設定され、変更不可
}

// TodoRequest は作成・更新リクエストのボディです。
// 更新時もすべてのフィールドを置き換えます (部分更新は行わない)。
type TodoRequest struct {
	Title       string `json:"title" binding:"required,min=3,max=30"`
	Description string `json:"description" binding:"required,min=3,max=100"`
	Priority    int    `json:"priority" binding:"gte=1,lte=5"`
	Completed   bool   `json:"completed"`
}

// Apply はリクエストの変更可能なフィールドをTodoに上書きします。
func (r TodoRequest) Apply(t *Todo) {
	t.Title = r.Title
	t.Description = r.Description
	t.Priority = r.Priority
	t.Completed = r.Completed
}

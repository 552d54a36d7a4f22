package spec

// SID 是 Setup ID，為 catalog 內的唯一鍵。
// 唯一性只保證在「同一個 Pmflab instance」內，不做全域保證。
type SID uint32

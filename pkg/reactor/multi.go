package reactor

// MultiAsync 聚合多个 Future
//
// 全部成功时以 []any 完成，顺序与输入一致，与完成顺序无关；
// 任一失败时以回调顺序中第一个失败的错误完成，其余结果被丢弃。
// 空输入立即以空切片完成。
func MultiAsync(loop *Loop, futures ...*Future) *Future {
	agg := NewFuture(loop)
	results := make([]any, len(futures))
	if len(futures) == 0 {
		_ = agg.Resolve(results)
		return agg
	}

	remaining := len(futures)
	for i, f := range futures {
		f.AddCallback(func(f *Future) {
			if agg.Done() {
				return
			}
			v, err := f.Result()
			if err != nil {
				_ = agg.Fail(err)
				return
			}
			results[i] = v
			remaining--
			if remaining == 0 {
				_ = agg.Resolve(results)
			}
		})
	}
	return agg
}

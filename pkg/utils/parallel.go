package utils

import "sync"

// ParallelMap 以最多 workers 个协程并发执行 fn，结果顺序与输入一致
// 输入长度 <= 1 或 workers <= 1 时直接串行处理
func ParallelMap[T any, R any](input []T, workers int, fn func(T) R) []R {
	result := make([]R, len(input))
	if len(input) == 0 {
		return result
	}
	if len(input) == 1 || workers <= 1 {
		for i, v := range input {
			result[i] = fn(v)
		}
		return result
	}
	if workers > len(input) {
		workers = len(input)
	}

	indexes := make(chan int, len(input))
	for i := range input {
		indexes <- i
	}
	close(indexes)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range indexes {
				result[i] = fn(input[i])
			}
		}()
	}
	wg.Wait()
	return result
}

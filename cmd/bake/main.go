// Command bake renders templates against content and data models.
//
//	bake render index.tpl --model site.yaml --out public/index.html
//	bake serve
//	bake content import posts.yaml
//	bake init
package main

func main() {
	Execute()
}
